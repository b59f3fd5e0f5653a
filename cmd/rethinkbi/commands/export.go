package commands

import (
	"github.com/spf13/cobra"

	"github.com/andrew2loo/RethinkBI/internal/ui"
)

// NewExportCommand creates the export command.
func NewExportCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <table> <path>",
		Short: "Write a table to a CSV or Parquet file",
		Long:  "Export every row of a table to a file. Exports require the duckdb engine.",
		Example: `  rethinkbi export sales out/sales.csv
  rethinkbi export sales out/sales.parquet --format parquet`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Services().Dataset.ExportDataset(cmd.Context(), args[0], format, args[1])
			if err != nil {
				return err
			}
			ui.PrintSuccess("Exported %d rows from %s to %s", res.RowCount, res.Table, res.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv or parquet")

	return cmd
}
