package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/entitydict/internal/cli/ui"
)

func newOrderCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Show entity types in dependency order",
		Long: `Show bound entity types ordered so that every type comes after the
types it references through owning to-one relationships. Fails when the
references form a cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			app, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			order, err := app.Dictionary.DependencyOrder()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return writeJSON(out, order)
			}
			for i, name := range order {
				fmt.Fprintf(out, "%3d. %s\n", i+1, name)
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("%d types, no cycles", len(order)), opts.noColor))
			return nil
		},
	}
}
