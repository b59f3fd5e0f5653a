package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/config"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
	"github.com/andrew2loo/RethinkBI/internal/core/query/filterexpr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/validator"
	"github.com/andrew2loo/RethinkBI/internal/ui"
)

type queryFlags struct {
	specFile string
	sql      string
	where    []string
	pageSize int
	cursor   string
	arrowOut string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(app *App) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a SQL or visual query",
		Long: `Run a query given as raw SQL (--sql) or as a JSON or YAML spec file (--spec).
--where adds filters to a visual spec, e.g. --where "region = 'EU' and amount > 10".`,
		Example: `  rethinkbi query --sql "SELECT region, SUM(amount) FROM sales GROUP BY 1"
  rethinkbi query --spec revenue.yaml --where "region in ('EU', 'US')"
  rethinkbi query --spec revenue.yaml --arrow-out revenue.arrows`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := buildQuerySpec(flags)
			if err != nil {
				return err
			}
			opts := domain.QueryOptions{
				Columnar: flags.arrowOut != "",
				PageSize: flags.pageSize,
				Cursor:   flags.cursor,
			}

			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Services().Query.Run(cmd.Context(), spec, opts)
			if err != nil {
				return err
			}

			if res.Columnar != nil {
				if err := afero.WriteFile(config.AppFs, flags.arrowOut, res.Columnar.Bytes, 0o644); err != nil {
					return apierr.Wrap(apierr.IOError, err, "failed to write %s", flags.arrowOut).
						WithDetail("path", flags.arrowOut)
				}
				ui.PrintSuccess("Wrote %d rows to %s", res.Columnar.Rows, flags.arrowOut)
				return nil
			}

			headers, rows := ui.PageTable(res.Paged)
			if len(headers) == 0 {
				ui.PrintInfo("No rows")
				return nil
			}
			if err := ui.PrintTable(headers, rows); err != nil {
				return err
			}
			ui.PrintInfo("%d of %d rows", len(rows), res.Paged.TotalRows)
			if res.Paged.NextCursor != "" {
				ui.PrintInfo("Next page: --cursor %s", res.Paged.NextCursor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.specFile, "spec", "", "Query spec file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&flags.sql, "sql", "", "Raw SQL text")
	cmd.Flags().StringArrayVar(&flags.where, "where", nil, "Filter expression added to a visual spec (repeatable)")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "Rows per page (default query.page_size)")
	cmd.Flags().StringVar(&flags.cursor, "cursor", "", "Cursor returned by a previous page")
	cmd.Flags().StringVar(&flags.arrowOut, "arrow-out", "", "Write the result as an Arrow IPC stream to this file")
	cmd.MarkFlagsMutuallyExclusive("spec", "sql")
	cmd.MarkFlagsMutuallyExclusive("arrow-out", "cursor")
	cmd.MarkFlagsMutuallyExclusive("arrow-out", "page-size")

	return cmd
}

func buildQuerySpec(flags queryFlags) (domain.QuerySpec, error) {
	var payload any
	switch {
	case flags.sql != "":
		payload = map[string]any{"kind": string(domain.KindSQL), "sql": flags.sql}
	case flags.specFile != "":
		var err error
		if payload, err = loadSpecFile(flags.specFile); err != nil {
			return nil, err
		}
	default:
		return nil, apierr.NewValidation("", "one of --sql or --spec is required")
	}

	spec, err := validator.ParseQuerySpec(payload)
	if err != nil {
		return nil, err
	}
	if flags.pageSize < 0 {
		return nil, apierr.NewValidation("pageSize", "must not be negative")
	}
	if len(flags.where) == 0 {
		return spec, nil
	}

	visual, ok := spec.(*domain.VisualQuery)
	if !ok {
		return nil, apierr.NewValidation("where", "--where only applies to visual queries")
	}
	filters, err := filterexpr.ParseAll(flags.where)
	if err != nil {
		return nil, err
	}
	visual.Filters = append(visual.Filters, filters...)
	return visual, nil
}

// loadSpecFile reads a query spec. JSON numbers are kept as json.Number so integer
// limits are not rounded through float64.
func loadSpecFile(path string) (any, error) {
	data, err := afero.ReadFile(config.AppFs, path)
	if err != nil {
		return nil, apierr.Wrap(apierr.IOError, err, "failed to read spec file").WithDetail("path", path)
	}

	var payload any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, apierr.NewValidation("", "invalid JSON in %s: %v", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, apierr.NewValidation("", "invalid YAML in %s: %v", path, err)
		}
	default:
		return nil, apierr.NewValidation("", "spec file must end in .json, .yaml or .yml, got %q", filepath.Base(path))
	}
	if payload == nil {
		return nil, apierr.NewValidation("", "%s is empty", path)
	}
	return payload, nil
}
