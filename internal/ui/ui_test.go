package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
	"github.com/andrew2loo/RethinkBI/internal/core/query/encoder"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr, prevColor := Stdout, Stderr, color.NoColor
	Stdout, Stderr, color.NoColor = out, errOut, true
	t.Cleanup(func() { Stdout, Stderr, color.NoColor = prevOut, prevErr, prevColor })
	return out, errOut
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", FormatValue(nil))
	assert.Equal(t, "EU", FormatValue("EU"))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, `{"a":1}`, FormatValue(map[string]any{"a": 1}))
	assert.Equal(t, `[1,"x"]`, FormatValue([]any{1, "x"}))
}

func TestPageTable(t *testing.T) {
	headers, rows := PageTable(&encoder.PagedRows{
		Columns: []string{"region", "total"},
		Rows:    [][]any{{"EU", 40.5}, {"US", nil}},
	})
	assert.Equal(t, []string{"region", "total"}, headers)
	assert.Equal(t, [][]string{{"EU", "40.5"}, {"US", "NULL"}}, rows)
}

func TestSchemaMarkdown(t *testing.T) {
	md := SchemaMarkdown([]domain.TableDef{{
		Name: "sales",
		Columns: []domain.ColumnDef{
			{Name: "id", DeclaredType: "INTEGER"},
			{Name: "a|b", DeclaredType: "VARCHAR", Nullable: true},
		},
	}})
	assert.Contains(t, md, "## sales")
	assert.Contains(t, md, "| id | INTEGER | no |")
	assert.Contains(t, md, `| a\|b | VARCHAR | yes |`)

	assert.Contains(t, SchemaMarkdown(nil), "_No tables._")
}

func TestPrintError(t *testing.T) {
	_, errOut := capture(t)

	PrintError(apierr.NewValidation("select[0].col", "is required"))
	assert.Contains(t, errOut.String(), "VALIDATION is required")
	assert.Contains(t, errOut.String(), "path: select[0].col")

	errOut.Reset()
	PrintError(errors.New("boom"))
	assert.Contains(t, errOut.String(), "INTERNAL boom")
}

func TestPrintTable(t *testing.T) {
	out, _ := capture(t)

	require.NoError(t, PrintTable([]string{"region"}, [][]string{{"EU"}}))
	assert.Contains(t, out.String(), "region")
	assert.Contains(t, out.String(), "EU")
}
