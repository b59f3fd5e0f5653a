package domain

// ColumnDef describes one column as reported by the engine catalog.
type ColumnDef struct {
	Name         string `json:"name" yaml:"name"`
	DeclaredType string `json:"type" yaml:"type"`
	Nullable     bool   `json:"nullable" yaml:"nullable"`
}

// TableDef describes one table and its columns in ordinal order.
type TableDef struct {
	Name    string      `json:"name" yaml:"name"`
	Columns []ColumnDef `json:"columns" yaml:"columns"`
}

// Column returns the named column.
func (t TableDef) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// ColumnNames returns the column names in ordinal order.
func (t TableDef) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
