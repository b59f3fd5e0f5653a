// Package rows folds catalog query rows into table definitions.
package rows

import (
	"database/sql"

	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// GroupColumns scans (table, column, type, nullable) rows ordered by table and ordinal
// position into TableDefs. rows is closed before returning.
func GroupColumns(rows *sql.Rows) ([]domain.TableDef, error) {
	defer rows.Close()

	tables := []domain.TableDef{}
	for rows.Next() {
		var table, name string
		var declared sql.NullString
		var nullable bool
		if err := rows.Scan(&table, &name, &declared, &nullable); err != nil {
			return nil, err
		}

		if n := len(tables); n == 0 || tables[n-1].Name != table {
			tables = append(tables, domain.TableDef{Name: table, Columns: []domain.ColumnDef{}})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, domain.ColumnDef{
			Name:         name,
			DeclaredType: declared.String,
			Nullable:     nullable,
		})
	}

	return tables, rows.Err()
}
