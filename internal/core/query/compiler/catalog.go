package compiler

import (
	"strings"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// Catalog resolves table and column references against introspected definitions.
// Lookups match exactly first and fall back to a unique case-insensitive match,
// mirroring how the embedded engines resolve unquoted identifiers.
type Catalog struct {
	tables []domain.TableDef
}

// NewCatalog builds a catalog from table definitions.
func NewCatalog(tables []domain.TableDef) Catalog {
	return Catalog{tables: tables}
}

// Table resolves name to a table definition, or fails with NOT_FOUND.
func (c Catalog) Table(name string) (domain.TableDef, error) {
	idx := resolve(len(c.tables), name, func(i int) string { return c.tables[i].Name })
	if idx < 0 {
		return domain.TableDef{}, apierr.NewNotFound("table", name)
	}
	return c.tables[idx], nil
}

// column resolves name on table, or fails with VALIDATION at path.
func column(table domain.TableDef, name, path string) (string, error) {
	def, err := columnDef(table, name, path)
	return def.Name, err
}

func columnDef(table domain.TableDef, name, path string) (domain.ColumnDef, error) {
	idx := resolve(len(table.Columns), name, func(i int) string { return table.Columns[i].Name })
	if idx < 0 {
		return domain.ColumnDef{}, apierr.NewValidation(path, "unknown column %q on table %q", name, table.Name).
			WithDetail("table", table.Name).
			WithDetail("column", name)
	}
	return table.Columns[idx], nil
}

// isText reports whether a declared type already compares as text. An empty type is
// SQLite's untyped column, which LIKE accepts as is.
func isText(declared string) bool {
	t := strings.ToUpper(declared)
	if t == "" {
		return true
	}
	for _, marker := range []string{"CHAR", "TEXT", "STRING", "CLOB"} {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}

func resolve(n int, name string, at func(int) string) int {
	folded := -1
	for i := 0; i < n; i++ {
		candidate := at(i)
		if candidate == name {
			return i
		}
		if strings.EqualFold(candidate, name) {
			if folded >= 0 {
				// ambiguous without an exact match
				folded = -2
				continue
			}
			if folded == -1 {
				folded = i
			}
		}
	}
	if folded < 0 {
		return -1
	}
	return folded
}
