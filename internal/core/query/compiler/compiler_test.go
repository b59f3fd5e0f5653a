package compiler_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/compiler"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

func salesCatalog() compiler.Catalog {
	return compiler.NewCatalog([]domain.TableDef{
		{
			Name: "sales",
			Columns: []domain.ColumnDef{
				{Name: "id", DeclaredType: "BIGINT"},
				{Name: "region", DeclaredType: "VARCHAR", Nullable: true},
				{Name: "amount", DeclaredType: "DOUBLE", Nullable: true},
				{Name: "Order Date", DeclaredType: "DATE", Nullable: true},
				{Name: "group", DeclaredType: "VARCHAR", Nullable: true},
			},
		},
		{Name: "Monthly Totals", Columns: []domain.ColumnDef{{Name: "month"}}},
	})
}

func intPtr(n int) *int { return &n }

func TestCompiler_GroupedSum(t *testing.T) {
	out, err := compiler.Compile(&domain.VisualQuery{
		Table:   "sales",
		Selects: []domain.VisualSelect{{Column: "amount", Aggregation: domain.AggSum, Alias: "total"}},
		GroupBy: []string{"region"},
	}, salesCatalog())
	require.NoError(t, err)

	assert.Equal(t, "SELECT SUM(amount) AS total FROM sales GROUP BY region", out.Query)
	assert.Empty(t, out.Args)
	assert.NotContains(t, out.Query, "WHERE")
	assert.NotContains(t, out.Query, "ORDER BY")
	assert.NotContains(t, out.Query, "LIMIT")
}

func TestCompiler_NoFiltersNoWhere(t *testing.T) {
	out, err := compiler.Compile(&domain.VisualQuery{
		Table:   "sales",
		Selects: []domain.VisualSelect{{Column: "region"}},
		Filters: []domain.Filter{},
	}, salesCatalog())
	require.NoError(t, err)

	assert.Equal(t, "SELECT region FROM sales", out.Query)
}

func TestCompiler_FullQuery(t *testing.T) {
	out, err := compiler.Compile(&domain.VisualQuery{
		Table: "sales",
		Selects: []domain.VisualSelect{
			{Column: "region"},
			{Column: "amount", Aggregation: domain.AggAvg, Alias: "mean"},
			{Column: "*", Aggregation: domain.AggCount, Alias: "n"},
		},
		Filters: []domain.Filter{
			{Column: "amount", Operator: domain.OpGte, Value: int64(10)},
			{Column: "region", Operator: domain.OpIn, Value: []any{"EU", "US"}},
			{Column: "id", Operator: domain.OpBetween, Value: []any{int64(1), int64(100)}},
			{Column: "region", Operator: domain.OpIsNotNull},
		},
		GroupBy: []string{"region"},
		OrderBy: []domain.OrderSpec{
			{Column: "mean", Direction: domain.Desc},
			{Column: "region", Direction: domain.Asc},
		},
		Limit: intPtr(25),
	}, salesCatalog())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT region, AVG(amount) AS mean, COUNT(*) AS n FROM sales"+
			" WHERE amount >= ? AND region IN (?, ?) AND id BETWEEN ? AND ? AND region IS NOT NULL"+
			" GROUP BY region ORDER BY mean DESC, region ASC LIMIT 25",
		out.Query)
	assert.Equal(t, []any{int64(10), "EU", "US", int64(1), int64(100)}, out.Args)
	assert.Zero(t, out.MaxRows)
}

func TestCompiler_WhereClause(t *testing.T) {
	tests := []struct {
		name     string
		filter   domain.Filter
		wantSQL  string
		wantArgs []any
	}{
		{"equals", domain.Filter{Column: "region", Operator: domain.OpEq, Value: "EU"}, "region = ?", []any{"EU"}},
		{"not equals", domain.Filter{Column: "region", Operator: domain.OpNeq, Value: "EU"}, "region != ?", []any{"EU"}},
		{"greater than", domain.Filter{Column: "amount", Operator: domain.OpGt, Value: 1.5}, "amount > ?", []any{1.5}},
		{"less than", domain.Filter{Column: "amount", Operator: domain.OpLt, Value: int64(3)}, "amount < ?", []any{int64(3)}},
		{"less or equal", domain.Filter{Column: "amount", Operator: domain.OpLte, Value: int64(3)}, "amount <= ?", []any{int64(3)}},
		{"contains escapes wildcards", domain.Filter{Column: "region", Operator: domain.OpContains, Value: `50%_a\b`}, `region LIKE ? ESCAPE '\'`, []any{`%50\%\_a\\b%`}},
		{"contains number", domain.Filter{Column: "region", Operator: domain.OpContains, Value: int64(7)}, `region LIKE ? ESCAPE '\'`, []any{"%7%"}},
		{"contains on numeric column", domain.Filter{Column: "amount", Operator: domain.OpContains, Value: "0"}, `CAST(amount AS VARCHAR) LIKE ? ESCAPE '\'`, []any{"%0%"}},
		{"is null", domain.Filter{Column: "amount", Operator: domain.OpIsNull}, "amount IS NULL", nil},
		{"quoted column", domain.Filter{Column: "Order Date", Operator: domain.OpGt, Value: "2024-01-01"}, `"Order Date" > ?`, []any{"2024-01-01"}},
		{"reserved column", domain.Filter{Column: "group", Operator: domain.OpEq, Value: "a"}, `"group" = ?`, []any{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := compiler.Compile(&domain.VisualQuery{
				Table:   "sales",
				Selects: []domain.VisualSelect{{Column: "id"}},
				Filters: []domain.Filter{tt.filter},
			}, salesCatalog())
			require.NoError(t, err)

			assert.Equal(t, "SELECT id FROM sales WHERE "+tt.wantSQL, out.Query)
			assert.Equal(t, tt.wantArgs, out.Args)
		})
	}
}

func TestCompiler_LiteralsNeverInlined(t *testing.T) {
	payload := "x'; DROP TABLE sales; --"
	out, err := compiler.Compile(&domain.VisualQuery{
		Table:   "sales",
		Selects: []domain.VisualSelect{{Column: "id"}},
		Filters: []domain.Filter{{Column: "region", Operator: domain.OpEq, Value: payload}},
	}, salesCatalog())
	require.NoError(t, err)

	assert.NotContains(t, out.Query, "DROP")
	assert.Equal(t, []any{payload}, out.Args)
}

func TestCompiler_PreservesOrder(t *testing.T) {
	out, err := compiler.Compile(&domain.VisualQuery{
		Table: "sales",
		Selects: []domain.VisualSelect{
			{Column: "amount", Alias: "b"},
			{Column: "region", Alias: "a"},
			{Column: "id"},
		},
		OrderBy: []domain.OrderSpec{
			{Column: "id", Direction: domain.Desc},
			{Column: "a", Direction: domain.Asc},
		},
	}, salesCatalog())
	require.NoError(t, err)

	assert.Equal(t, "SELECT amount AS b, region AS a, id FROM sales ORDER BY id DESC, a ASC", out.Query)
}

func TestCompiler_QuotesIdentifiers(t *testing.T) {
	out, err := compiler.Compile(&domain.VisualQuery{
		Table:   "Monthly Totals",
		Selects: []domain.VisualSelect{{Column: "month", Alias: "select"}},
	}, salesCatalog())
	require.NoError(t, err)

	assert.Equal(t, `SELECT month AS "select" FROM "Monthly Totals"`, out.Query)
}

func TestCompiler_CaseInsensitiveLookup(t *testing.T) {
	out, err := compiler.Compile(&domain.VisualQuery{
		Table:   "SALES",
		Selects: []domain.VisualSelect{{Column: "Region"}},
	}, salesCatalog())
	require.NoError(t, err)

	assert.Equal(t, "SELECT region FROM sales", out.Query)
}

func TestCompiler_Deterministic(t *testing.T) {
	q := &domain.VisualQuery{
		Table:   "sales",
		Selects: []domain.VisualSelect{{Column: "region"}, {Column: "amount", Aggregation: domain.AggMax}},
		Filters: []domain.Filter{{Column: "region", Operator: domain.OpContains, Value: "e"}},
		GroupBy: []string{"region"},
	}
	first, err := compiler.Compile(q, salesCatalog())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := compiler.Compile(q, salesCatalog())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompiler_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query *domain.VisualQuery
		code  apierr.Code
		path  string
	}{
		{
			name:  "unknown table",
			query: &domain.VisualQuery{Table: "nope", Selects: []domain.VisualSelect{{Column: "id"}}},
			code:  apierr.NotFound,
		},
		{
			name:  "unknown select column",
			query: &domain.VisualQuery{Table: "sales", Selects: []domain.VisualSelect{{Column: "id"}, {Column: "price"}}},
			code:  apierr.Validation,
			path:  "select[1].col",
		},
		{
			name: "unknown filter column",
			query: &domain.VisualQuery{Table: "sales", Selects: []domain.VisualSelect{{Column: "id"}},
				Filters: []domain.Filter{{Column: "price", Operator: domain.OpEq, Value: int64(1)}}},
			code: apierr.Validation,
			path: "filters[0].col",
		},
		{
			name: "unknown group column",
			query: &domain.VisualQuery{Table: "sales", Selects: []domain.VisualSelect{{Column: "id"}},
				GroupBy: []string{"price"}},
			code: apierr.Validation,
			path: "groupBy[0]",
		},
		{
			name: "unknown order column",
			query: &domain.VisualQuery{Table: "sales", Selects: []domain.VisualSelect{{Column: "id"}},
				OrderBy: []domain.OrderSpec{{Column: "price", Direction: domain.Asc}}},
			code: apierr.Validation,
			path: "orderBy[0].col",
		},
		{
			name: "unknown operator",
			query: &domain.VisualQuery{Table: "sales", Selects: []domain.VisualSelect{{Column: "id"}},
				Filters: []domain.Filter{{Column: "id", Operator: "~", Value: int64(1)}}},
			code: apierr.Internal,
		},
		{
			name:  "empty select",
			query: &domain.VisualQuery{Table: "sales"},
			code:  apierr.Validation,
			path:  "select",
		},
		{
			name:  "sum of star",
			query: &domain.VisualQuery{Table: "sales", Selects: []domain.VisualSelect{{Column: "*", Aggregation: domain.AggSum}}},
			code:  apierr.Validation,
			path:  "select[0].agg",
		},
		{
			name:  "zero limit",
			query: &domain.VisualQuery{Table: "sales", Selects: []domain.VisualSelect{{Column: "id"}}, Limit: intPtr(0)},
			code:  apierr.Validation,
			path:  "limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := compiler.Compile(tt.query, salesCatalog())
			require.Error(t, err)
			assert.Empty(t, out.Query)

			apiErr := apierr.Normalize(err)
			assert.Equal(t, tt.code, apiErr.Code)
			if tt.path != "" {
				assert.Equal(t, tt.path, apiErr.Details["path"])
			}
		})
	}
}

func TestPassThrough(t *testing.T) {
	out := compiler.PassThrough(&domain.SQLQuery{
		Text:        "SELECT * FROM sales WHERE region = $region AND amount > $min",
		NamedParams: map[string]any{"region": "EU", "min": int64(5)},
		Limit:       intPtr(100),
	})

	assert.Equal(t, "SELECT * FROM sales WHERE region = $region AND amount > $min", out.Query)
	assert.Equal(t, []any{sql.Named("min", int64(5)), sql.Named("region", "EU")}, out.Args)
	assert.Equal(t, 100, out.MaxRows)

	bare := compiler.PassThrough(&domain.SQLQuery{Text: "SELECT 1"})
	assert.Nil(t, bare.Args)
	assert.Zero(t, bare.MaxRows)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "amount", compiler.QuoteIdent("amount"))
	assert.Equal(t, `"order"`, compiler.QuoteIdent("order"))
	assert.Equal(t, `"2024"`, compiler.QuoteIdent("2024"))
	assert.Equal(t, `"say ""hi"""`, compiler.QuoteIdent(`say "hi"`))
	assert.Equal(t, `'it''s'`, compiler.QuoteLiteral("it's"))
}
