package commands

import (
	"github.com/spf13/cobra"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/ui"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(app *App) *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "schema [table]",
		Short: "Show tables and columns",
		Long:  "List the user tables of the engine with their columns, or a single table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			tables, err := c.Services().Schema.GetSchema(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 1 {
				filtered := tables[:0]
				for _, t := range tables {
					if t.Name == args[0] {
						filtered = append(filtered, t)
					}
				}
				if len(filtered) == 0 {
					return apierr.NewNotFound("table", args[0])
				}
				tables = filtered
			}

			if markdown {
				return ui.PrintMarkdown(ui.SchemaMarkdown(tables))
			}

			if len(tables) == 0 {
				ui.PrintInfo("No tables")
				return nil
			}
			rows := make([][]string, 0)
			for _, t := range tables {
				for _, col := range t.Columns {
					nullable := "no"
					if col.Nullable {
						nullable = "yes"
					}
					rows = append(rows, []string{t.Name, col.Name, col.DeclaredType, nullable})
				}
			}
			return ui.PrintTable([]string{"Table", "Column", "Type", "Nullable"}, rows)
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the schema as a markdown report")

	return cmd
}
