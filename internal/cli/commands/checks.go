package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/entitydict/internal/cli/ui"
	"github.com/conduit-lang/entitydict/internal/introspect"
)

func newChecksCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checks [alias]",
		Short: "List registered security checks",
		Long: `List the security check aliases known to the dictionary: the prefab
checks plus every check declared in the configured scan scope.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			app, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			views := introspect.NewCheckViews(app.Dictionary)

			if len(args) == 1 {
				alias := args[0]
				t, ok := app.Dictionary.Checks().Resolve(alias)
				if !ok {
					fmt.Fprint(out, ui.NotFound("check", alias, ui.Suggest(alias, app.Dictionary.Checks().Aliases()), "See all checks: dictctl checks", opts.noColor))
					return fmt.Errorf("check %q not found", alias)
				}
				views = []introspect.CheckView{{Alias: alias, Type: t.String()}}
			}

			if opts.format == "json" {
				return writeJSON(out, views)
			}
			table := ui.NewTable(out, opts.noColor, "ALIAS", "TYPE")
			for _, v := range views {
				table.AddRow(v.Alias, v.Type)
			}
			table.Render()
			return nil
		},
	}
}
