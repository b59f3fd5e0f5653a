package domain

// Row maps column name to value for one result row.
type Row map[string]any

// Result is the materialized output of one statement.
type Result struct {
	// Columns lists column names in engine order.
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}
