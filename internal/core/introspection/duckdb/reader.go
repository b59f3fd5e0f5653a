// Package duckdb implements DuckDB catalog introspection.
package duckdb

import (
	"context"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
	"github.com/andrew2loo/RethinkBI/internal/core/introspection/rows"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

const columnsQuery = `
	SELECT table_name, column_name, data_type, is_nullable = 'YES'
	FROM information_schema.columns
	WHERE table_schema = 'main'
	ORDER BY table_name, ordinal_position
`

// Reader implements introspection.Reader for DuckDB.
type Reader struct{}

// NewReader creates a new DuckDB catalog reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadTables reads information_schema.columns of the main schema.
func (r *Reader) ReadTables(ctx context.Context, a database.Adapter) ([]domain.TableDef, error) {
	result, err := a.Query(ctx, columnsQuery)
	if err != nil {
		return nil, err
	}
	return rows.GroupColumns(result)
}
