package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
	"github.com/andrew2loo/RethinkBI/internal/core/query/encoder"
)

// NullText is shown for SQL NULL.
const NullText = "NULL"

// FormatValue renders a paged-row or detail value as a single table cell.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return NullText
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

// PageTable converts a page into table headers and rows.
func PageTable(page *encoder.PagedRows) ([]string, [][]string) {
	rows := make([][]string, len(page.Rows))
	for i, row := range page.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		rows[i] = cells
	}
	return page.Columns, rows
}

// SchemaMarkdown renders tables as a markdown report, one section per table.
func SchemaMarkdown(tables []domain.TableDef) string {
	var b strings.Builder
	b.WriteString("# Schema\n\n")
	if len(tables) == 0 {
		b.WriteString("_No tables._\n")
		return b.String()
	}

	for _, t := range tables {
		fmt.Fprintf(&b, "## %s\n\n", t.Name)
		b.WriteString("| Column | Type | Nullable |\n|---|---|---|\n")
		for _, c := range t.Columns {
			nullable := "no"
			if c.Nullable {
				nullable = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(c.Name), escapeCell(c.DeclaredType), nullable)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
