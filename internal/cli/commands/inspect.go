package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/entitydict/internal/bootstrap"
	"github.com/conduit-lang/entitydict/internal/cli/ui"
	"github.com/conduit-lang/entitydict/internal/dictionary"
	"github.com/conduit-lang/entitydict/internal/introspect"
)

func newInspectCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [name]",
		Short: "List bindings or show one binding in detail",
		Long: `List every bound entity type, or show the identifier, attributes and
relationships of the binding with the given exposed name.`,
		Example: `  dictctl inspect
  dictctl inspect book
  dictctl inspect book --format json`,
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

			if len(args) == 0 {
				return listBindings(cmd.OutOrStdout(), app, opts)
			}
			return showBinding(cmd.OutOrStdout(), app, args[0], opts)
		},
	}
}

func listBindings(w io.Writer, app *bootstrap.App, opts *globalOptions) error {
	d := app.Dictionary
	bindings := d.Bindings()

	if opts.format == "json" {
		views := make([]introspect.BindingView, 0, len(bindings))
		for _, b := range bindings {
			views = append(views, introspect.NewBindingView(d, b))
		}
		return writeJSON(w, views)
	}

	table := ui.NewTable(w, opts.noColor, "NAME", "TYPE", "ID", "ATTRIBUTES", "RELATIONSHIPS", "ROOT")
	for _, b := range bindings {
		id := "-"
		if b.Identifier != nil {
			id = b.Identifier.Name + " " + b.Identifier.Type.String()
		}
		table.AddRow(
			b.ExposedName,
			b.EntityType.String(),
			id,
			strconv.Itoa(len(b.Attributes())),
			strconv.Itoa(len(b.Relationships())),
			yesNo(b.RootLevel),
		)
	}
	table.Render()
	fmt.Fprintf(w, "\n%d bindings from %s\n", table.Len(), app.Store.Name())
	return nil
}

func showBinding(w io.Writer, app *bootstrap.App, name string, opts *globalOptions) error {
	d := app.Dictionary
	t, ok := d.GetTypeByExposedName(name)
	if !ok {
		fmt.Fprint(w, ui.NotFound("binding", name, ui.Suggest(name, exposedNames(d)), "See all bindings: dictctl inspect", opts.noColor))
		return fmt.Errorf("binding %q not found", name)
	}
	b, err := d.GetBinding(t)
	if err != nil {
		return err
	}
	view := introspect.NewBindingView(d, b)
	if opts.format == "json" {
		return writeJSON(w, view)
	}

	kv := ui.NewKeyValueTable(w, opts.noColor)
	kv.AddRow("Name", view.Name)
	kv.AddRow("Type", view.Type)
	kv.AddRow("Access", view.AccessStrategy)
	kv.AddRow("Root level", yesNo(view.RootLevel))
	kv.AddRow("Shareable", yesNo(view.Shareable))
	kv.AddRow("Lineage", strings.Join(view.Lineage, " → "))
	if view.Identifier != nil {
		kv.AddRow("Identifier", view.Identifier.Name+" "+view.Identifier.Type)
	}
	if len(view.Annotations) > 0 {
		kv.AddRow("Annotations", strings.Join(view.Annotations, "; "))
	}
	kv.AddRow("Hooks", strconv.Itoa(view.Hooks))
	kv.Render()

	if len(view.Attributes) > 0 {
		fmt.Fprintln(w)
		attrs := ui.NewTable(w, opts.noColor, "ATTRIBUTE", "TYPE", "COMPUTED", "ANNOTATIONS")
		for _, a := range view.Attributes {
			attrs.AddRow(a.Name, a.Type, yesNo(a.Computed), strings.Join(a.Annotations, "; "))
		}
		attrs.Render()
	}

	if len(view.Relationships) > 0 {
		fmt.Fprintln(w)
		rels := ui.NewTable(w, opts.noColor, "RELATIONSHIP", "TARGET", "CARDINALITY", "INVERSE", "CASCADE DELETE")
		for _, r := range view.Relationships {
			rels.AddRow(r.Name, r.Target, r.Cardinality, dash(r.Inverse), yesNo(r.CascadeDelete))
		}
		rels.Render()
	}
	return nil
}

func exposedNames(d *dictionary.Dictionary) []string {
	bindings := d.Bindings()
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = b.ExposedName
	}
	return names
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
