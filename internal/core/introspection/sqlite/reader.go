// Package sqlite implements SQLite catalog introspection.
package sqlite

import (
	"context"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
	"github.com/andrew2loo/RethinkBI/internal/core/introspection/rows"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// pragma_table_info as a table-valued function keeps table names out of the query text.
const columnsQuery = `
	SELECT m.name, p.name, p.type, p."notnull" = 0
	FROM sqlite_master AS m
	JOIN pragma_table_info(m.name) AS p
	WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
	ORDER BY m.name, p.cid
`

// Reader implements introspection.Reader for SQLite.
type Reader struct{}

// NewReader creates a new SQLite catalog reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadTables reads every user table through pragma_table_info.
func (r *Reader) ReadTables(ctx context.Context, a database.Adapter) ([]domain.TableDef, error) {
	result, err := a.Query(ctx, columnsQuery)
	if err != nil {
		return nil, err
	}
	return rows.GroupColumns(result)
}
