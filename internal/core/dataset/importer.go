package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
	"github.com/andrew2loo/RethinkBI/internal/adapters/storage"
	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/engine"
	"github.com/andrew2loo/RethinkBI/internal/core/introspection"
	"github.com/andrew2loo/RethinkBI/internal/core/query/compiler"
	"github.com/andrew2loo/RethinkBI/internal/debug"
)

// Importer loads files into the engine and writes tables back out.
type Importer struct {
	engine  *engine.Engine
	storage storage.Storage
	intro   *introspection.Introspector
	log     *slog.Logger
}

// NewImporter creates an importer.
func NewImporter(e *engine.Engine, s storage.Storage, intro *introspection.Introspector) *Importer {
	return &Importer{
		engine:  e,
		storage: s,
		intro:   intro,
		log:     debug.With("component", "dataset"),
	}
}

// Import validates payload and loads it into target, or a fresh import_<uuid> table when
// target is empty. The reported row count comes from an independent COUNT(*).
func (i *Importer) Import(ctx context.Context, payload any, target string) (*ImportResult, error) {
	req, err := ParseImport(payload)
	if err != nil {
		return nil, err
	}
	return i.ImportRequest(ctx, req, target)
}

// ImportRequest runs an already validated request.
func (i *Importer) ImportRequest(ctx context.Context, req *ImportRequest, target string) (*ImportResult, error) {
	switch req.Kind {
	case KindExcel:
		return nil, apierr.NewUnsupported("import.excel", "excel imports are not supported")
	case KindDatabase:
		return nil, apierr.NewUnsupported("import.database", "remote database imports are not supported")
	}

	table, err := TargetTable(target)
	if err != nil {
		return nil, err
	}

	path, err := i.sourcePath(ctx, req.Path)
	if err != nil {
		return nil, err
	}

	if !req.Options.Replace {
		if _, err := i.intro.Table(ctx, table); err == nil {
			return nil, apierr.NewValidation("table", "table %q already exists", table).WithDetail("table", table)
		} else if !apierr.Is(err, apierr.NotFound) {
			return nil, err
		}
	}

	var count int64
	switch i.engine.Dialect() {
	case database.DuckDB:
		count, err = i.importDuckDB(ctx, req, path, table)
	case database.SQLite:
		count, err = i.importSQLite(ctx, req, table)
	default:
		err = apierr.NewUnsupported("import", "imports are not supported on %s", i.engine.Dialect())
	}
	if err != nil {
		return nil, err
	}

	def, err := i.intro.Table(ctx, table)
	if err != nil {
		return nil, err
	}

	i.log.Info("dataset imported", "kind", req.Kind, "path", req.Path, "table", table, "rows", count)
	return &ImportResult{Table: table, RowCount: count, Schema: def}, nil
}

// sourcePath checks the file exists and returns its absolute location.
func (i *Importer) sourcePath(ctx context.Context, path string) (string, error) {
	info, err := i.storage.Stat(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", apierr.Wrap(apierr.IOError, err, "cannot read %s", path).WithDetail("path", path)
		}
		return "", apierr.Wrap(apierr.IOError, err, "cannot stat %s", path).WithDetail("path", path)
	}
	if info.IsDir {
		return "", apierr.New(apierr.IOError, "%s is a directory", path).WithDetail("path", path)
	}
	return i.storage.Resolve(path)
}

// readFunction renders the DuckDB table function that reads the source file. Every value
// is emitted as an escaped string literal.
func readFunction(req *ImportRequest, path string) string {
	switch req.Kind {
	case KindParquet:
		return fmt.Sprintf("read_parquet(%s)", compiler.QuoteLiteral(path))
	case KindJSON:
		return fmt.Sprintf("read_json_auto(%s)", compiler.QuoteLiteral(path))
	}

	args := []string{
		compiler.QuoteLiteral(path),
		fmt.Sprintf("header = %t", req.Options.HasHeader()),
	}
	if req.Options.Delim != "" {
		args = append(args, "delim = "+compiler.QuoteLiteral(req.Options.Delim))
	}
	if req.Options.Quote != "" {
		args = append(args, "quote = "+compiler.QuoteLiteral(req.Options.Quote))
	}
	if req.Options.NullStr != "" {
		args = append(args, "nullstr = "+compiler.QuoteLiteral(req.Options.NullStr))
	}
	return fmt.Sprintf("read_csv_auto(%s)", strings.Join(args, ", "))
}

func (i *Importer) importDuckDB(ctx context.Context, req *ImportRequest, path, table string) (int64, error) {
	create := "CREATE TABLE "
	if req.Options.Replace {
		create = "CREATE OR REPLACE TABLE "
	}
	stmt := create + compiler.QuoteIdent(table) + " AS SELECT * FROM " + readFunction(req, path)

	var count int64
	err := i.engine.Do(ctx, func(ctx context.Context, a database.Adapter) error {
		if _, err := a.Execute(ctx, stmt); err != nil {
			return apierr.Wrap(apierr.Internal, err, "failed to import %s", req.Path)
		}
		n, err := countRows(ctx, a, table)
		count = n
		return err
	})
	return count, err
}

// countRows runs an independent COUNT(*) over table.
func countRows(ctx context.Context, a database.Adapter, table string) (int64, error) {
	rows, err := a.Query(ctx, "SELECT COUNT(*) FROM "+compiler.QuoteIdent(table))
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to count rows: %w", err)
		}
	}
	return n, rows.Err()
}
