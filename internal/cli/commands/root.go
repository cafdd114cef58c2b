package commands

import (
	"context"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/entitydict/internal/bootstrap"
	"github.com/conduit-lang/entitydict/internal/config"
	"github.com/conduit-lang/entitydict/internal/logging"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	format     string
	noColor    bool
}

// loadApp builds the populated dictionary for a command. Tests replace it.
var loadApp = func(ctx context.Context, opts *globalOptions) (*bootstrap.App, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(ctx, bootstrap.Options{Config: cfg, Logger: logger})
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "dictctl",
		Short: "Inspect the entity dictionary of an application",
		Long: color.CyanString(`dictctl - entity dictionary tooling

dictctl binds the annotated model types of an application the same way the
application does at startup and lets you look at the result:

  • bindings with their identifiers, attributes and relationships
  • registered security checks and their aliases
  • the order in which entity types depend on each other
  • a read-only HTTP view for other tools`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the config file (default: ./entitydict.yaml)")
	flags.StringVar(&opts.format, "format", "table", "Output format: table or json")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newInspectCommand(opts))
	rootCmd.AddCommand(newChecksCommand(opts))
	rootCmd.AddCommand(newOrderCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			title := color.New(color.FgCyan, color.Bold)
			for _, row := range [][2]string{
				{"dictctl version: ", Version},
				{"Git commit: ", GitCommit},
				{"Build date: ", BuildDate},
				{"Go version: ", goVer},
			} {
				title.Fprint(out, row[0])
				fmt.Fprintln(out, row[1])
			}
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func validateFormat(format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unsupported format %q: use table or json", format)
	}
	return nil
}
