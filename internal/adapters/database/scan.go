package database

import (
	"database/sql"
	"fmt"

	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// ScanRows materializes rows into a Result, stopping after maxRows when maxRows > 0.
// convert is applied to every non-nil value. rows is closed before returning.
func ScanRows(rows *sql.Rows, maxRows int, convert func(any) any) (*domain.Result, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &domain.Result{Columns: columns, Rows: []domain.Row{}}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if maxRows > 0 && len(result.Rows) >= maxRows {
			break
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(domain.Row, len(columns))
		for i, col := range columns {
			v := values[i]
			if v != nil && convert != nil {
				v = convert(v)
			}
			row[col] = v
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return result, nil
}
