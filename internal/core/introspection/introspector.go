// Package introspection reads table and column definitions from the engine catalog.
package introspection

import (
	"context"
	"fmt"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
	"github.com/andrew2loo/RethinkBI/internal/core/engine"
	"github.com/andrew2loo/RethinkBI/internal/core/introspection/duckdb"
	"github.com/andrew2loo/RethinkBI/internal/core/introspection/sqlite"
	"github.com/andrew2loo/RethinkBI/internal/core/query/compiler"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// Reader reads the catalog of one engine dialect.
type Reader interface {
	ReadTables(ctx context.Context, a database.Adapter) ([]domain.TableDef, error)
}

// ReaderFor returns the catalog reader for dialect.
func ReaderFor(dialect database.SQLDialect) (Reader, error) {
	switch dialect {
	case database.DuckDB:
		return duckdb.NewReader(), nil
	case database.SQLite:
		return sqlite.NewReader(), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// Introspector reads schema through the engine queue, so a read submitted after a
// completed import always sees the imported table. Nothing is cached.
type Introspector struct {
	engine *engine.Engine
	reader Reader
}

// New creates an introspector for e's dialect.
func New(e *engine.Engine) (*Introspector, error) {
	reader, err := ReaderFor(e.Dialect())
	if err != nil {
		return nil, err
	}
	return &Introspector{engine: e, reader: reader}, nil
}

// Tables returns every user table with columns in ordinal order. An empty catalog yields
// an empty, non-nil slice.
func (i *Introspector) Tables(ctx context.Context) ([]domain.TableDef, error) {
	var tables []domain.TableDef
	err := i.engine.Do(ctx, func(ctx context.Context, a database.Adapter) error {
		var err error
		tables, err = i.reader.ReadTables(ctx, a)
		if err != nil {
			return fmt.Errorf("failed to read catalog: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if tables == nil {
		tables = []domain.TableDef{}
	}
	return tables, nil
}

// Catalog returns a fresh catalog snapshot for query compilation.
func (i *Introspector) Catalog(ctx context.Context) (compiler.Catalog, error) {
	tables, err := i.Tables(ctx)
	if err != nil {
		return compiler.Catalog{}, err
	}
	return compiler.NewCatalog(tables), nil
}

// Table returns one table by name, or NOT_FOUND.
func (i *Introspector) Table(ctx context.Context, name string) (domain.TableDef, error) {
	catalog, err := i.Catalog(ctx)
	if err != nil {
		return domain.TableDef{}, err
	}
	return catalog.Table(name)
}
