package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/compiler"
)

// ExportFormat is the file format of an export.
type ExportFormat string

const (
	FormatCSV     ExportFormat = "csv"
	FormatParquet ExportFormat = "parquet"
)

// ExportResult reports a written file.
type ExportResult struct {
	Table    string       `json:"table"`
	Path     string       `json:"path"`
	Format   ExportFormat `json:"format"`
	RowCount int64        `json:"rowCount"`
}

// Export writes table to path through DuckDB's COPY.
func (i *Importer) Export(ctx context.Context, table string, format ExportFormat, path string) (*ExportResult, error) {
	format = ExportFormat(strings.ToLower(string(format)))
	switch format {
	case FormatCSV, FormatParquet:
	case "":
		return nil, apierr.NewValidation("format", "is required (csv or parquet)")
	default:
		return nil, apierr.NewUnsupported("export."+string(format), "export format %q is not supported", format)
	}
	if strings.TrimSpace(path) == "" {
		return nil, apierr.NewValidation("path", "is required")
	}
	if i.engine.Dialect() != database.DuckDB {
		return nil, apierr.NewUnsupported("export", "exports require the duckdb engine")
	}

	def, err := i.intro.Table(ctx, table)
	if err != nil {
		return nil, err
	}

	abs, err := i.storage.Resolve(path)
	if err != nil {
		return nil, apierr.Wrap(apierr.IOError, err, "cannot write %s", path)
	}
	if err := i.storage.MkdirAll(ctx, filepath.Dir(abs)); err != nil {
		return nil, apierr.Wrap(apierr.IOError, err, "cannot write %s", path).WithDetail("path", path)
	}

	_, statErr := i.storage.Stat(ctx, abs)
	existed := statErr == nil

	options := "FORMAT PARQUET"
	if format == FormatCSV {
		options = "FORMAT CSV, HEADER"
	}
	name := compiler.QuoteIdent(def.Name)
	stmt := fmt.Sprintf("COPY (SELECT * FROM %s) TO %s (%s)", name, compiler.QuoteLiteral(abs), options)

	var count int64
	err = i.engine.Do(ctx, func(ctx context.Context, a database.Adapter) error {
		if _, err := a.Execute(ctx, stmt); err != nil {
			if !existed {
				i.removePartial(ctx, abs)
			}
			return apierr.Wrap(apierr.IOError, err, "failed to export %s", def.Name).WithDetail("path", path)
		}
		n, err := countRows(ctx, a, def.Name)
		count = n
		return err
	})
	if err != nil {
		return nil, err
	}

	i.log.Info("dataset exported", "table", def.Name, "format", format, "path", abs, "rows", count)
	return &ExportResult{Table: def.Name, Path: abs, Format: format, RowCount: count}, nil
}

// removePartial deletes the file a failed COPY created. Directories are never touched.
func (i *Importer) removePartial(ctx context.Context, abs string) {
	info, err := i.storage.Stat(ctx, abs)
	if err != nil || info.IsDir {
		return
	}
	if err := i.storage.Delete(ctx, abs); err != nil {
		i.log.Warn("failed to remove partial export", "path", abs, "error", err)
	}
}
