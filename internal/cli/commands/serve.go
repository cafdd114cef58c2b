package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/entitydict/internal/introspect"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only JSON view of the dictionary",
		Long: `Serve the dictionary over HTTP until interrupted.

Routes:
  GET /bindings          all bindings
  GET /bindings/{name}   one binding by exposed name
  GET /checks            registered security checks
  GET /order             dependency order
  GET /stats             counts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.Config.Server.Addr
			}
			return introspect.Serve(ctx, introspect.ServerConfig{
				Addr:    addr,
				Handler: introspect.NewHandler(app.Dictionary, app.Logger.Named("http")),
				Logger:  app.Logger,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config)")
	return cmd
}
