// Package compiler implements SQL compilation from visual queries.
package compiler

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// SQLCompiler compiles visual queries against a catalog snapshot.
type SQLCompiler struct {
	catalog Catalog
}

// NewSQLCompiler creates a new SQL compiler.
func NewSQLCompiler(catalog Catalog) *SQLCompiler {
	return &SQLCompiler{catalog: catalog}
}

// Compile compiles q against catalog. See SQLCompiler.Compile.
func Compile(q *domain.VisualQuery, catalog Catalog) (domain.SQL, error) {
	return NewSQLCompiler(catalog).Compile(q)
}

// Compile turns a visual query into query text with bound arguments. Identifiers are
// resolved through the catalog; literal values only ever appear in Args.
func (c *SQLCompiler) Compile(q *domain.VisualQuery) (domain.SQL, error) {
	if q == nil {
		return domain.SQL{}, apierr.New(apierr.Internal, "nil visual query")
	}
	if len(q.Selects) == 0 {
		return domain.SQL{}, apierr.NewValidation("select", "at least one column must be selected")
	}

	table, err := c.catalog.Table(q.Table)
	if err != nil {
		return domain.SQL{}, err
	}

	var sqlBuilder strings.Builder
	var args []any

	// SELECT clause
	sqlBuilder.WriteString("SELECT ")
	aliases := make(map[string]bool, len(q.Selects))
	for i, sel := range q.Selects {
		if i > 0 {
			sqlBuilder.WriteString(", ")
		}
		expr, err := c.selectExpr(table, sel, fmt.Sprintf("select[%d]", i))
		if err != nil {
			return domain.SQL{}, err
		}
		sqlBuilder.WriteString(expr)
		if sel.Alias != "" {
			sqlBuilder.WriteString(" AS ")
			sqlBuilder.WriteString(QuoteIdent(sel.Alias))
			aliases[sel.Alias] = true
		}
	}

	// FROM clause
	sqlBuilder.WriteString(" FROM ")
	sqlBuilder.WriteString(QuoteIdent(table.Name))

	// WHERE clause
	if len(q.Filters) > 0 {
		whereClause, whereArgs, err := c.buildWhereClause(table, q.Filters)
		if err != nil {
			return domain.SQL{}, err
		}
		sqlBuilder.WriteString(" WHERE ")
		sqlBuilder.WriteString(whereClause)
		args = append(args, whereArgs...)
	}

	// GROUP BY clause
	if len(q.GroupBy) > 0 {
		sqlBuilder.WriteString(" GROUP BY ")
		for i, name := range q.GroupBy {
			if i > 0 {
				sqlBuilder.WriteString(", ")
			}
			col, err := column(table, name, fmt.Sprintf("groupBy[%d]", i))
			if err != nil {
				return domain.SQL{}, err
			}
			sqlBuilder.WriteString(QuoteIdent(col))
		}
	}

	// ORDER BY clause
	if len(q.OrderBy) > 0 {
		sqlBuilder.WriteString(" ORDER BY ")
		for i, order := range q.OrderBy {
			if i > 0 {
				sqlBuilder.WriteString(", ")
			}
			ref := order.Column
			if !aliases[ref] {
				if ref, err = column(table, order.Column, fmt.Sprintf("orderBy[%d].col", i)); err != nil {
					return domain.SQL{}, err
				}
			}
			sqlBuilder.WriteString(QuoteIdent(ref))
			if order.Direction == domain.Desc {
				sqlBuilder.WriteString(" DESC")
			} else {
				sqlBuilder.WriteString(" ASC")
			}
		}
	}

	// LIMIT clause
	if q.Limit != nil {
		if *q.Limit <= 0 {
			return domain.SQL{}, apierr.NewValidation("limit", "must be a positive integer, got %d", *q.Limit)
		}
		sqlBuilder.WriteString(" LIMIT ")
		sqlBuilder.WriteString(strconv.Itoa(*q.Limit))
	}

	return domain.SQL{
		Query: sqlBuilder.String(),
		Args:  args,
	}, nil
}

// selectExpr renders one select entry without its alias.
func (c *SQLCompiler) selectExpr(table domain.TableDef, sel domain.VisualSelect, path string) (string, error) {
	agg := sel.Aggregation
	if agg == "" {
		agg = domain.AggNone
	}

	var ref string
	if sel.Column == "*" {
		if agg != domain.AggNone && agg != domain.AggCount {
			return "", apierr.NewValidation(path+".agg", "%s cannot be applied to *", strings.ToUpper(string(agg)))
		}
		ref = "*"
	} else {
		col, err := column(table, sel.Column, path+".col")
		if err != nil {
			return "", err
		}
		ref = QuoteIdent(col)
	}

	switch agg {
	case domain.AggNone:
		return ref, nil
	case domain.AggSum, domain.AggAvg, domain.AggCount, domain.AggMin, domain.AggMax:
		return fmt.Sprintf("%s(%s)", strings.ToUpper(string(agg)), ref), nil
	default:
		return "", apierr.New(apierr.Internal, "unsupported aggregation: %s", agg)
	}
}

// buildWhereClause joins every filter with AND.
func (c *SQLCompiler) buildWhereClause(table domain.TableDef, filters []domain.Filter) (string, []any, error) {
	var parts []string
	var args []any

	for i, filter := range filters {
		condition, condArgs, err := c.buildCondition(table, filter, fmt.Sprintf("filters[%d]", i))
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, condition)
		args = append(args, condArgs...)
	}

	return strings.Join(parts, " AND "), args, nil
}

// buildCondition builds a single predicate with placeholders for every literal.
func (c *SQLCompiler) buildCondition(table domain.TableDef, filter domain.Filter, path string) (string, []any, error) {
	col, err := columnDef(table, filter.Column, path+".col")
	if err != nil {
		return "", nil, err
	}
	field := QuoteIdent(col.Name)

	switch filter.Operator {
	case domain.OpEq, domain.OpNeq, domain.OpGt, domain.OpLt, domain.OpGte, domain.OpLte:
		if filter.Value == nil {
			return "", nil, apierr.NewValidation(path+".value", "is required for operator %q", filter.Operator)
		}
		return fmt.Sprintf("%s %s ?", field, filter.Operator), []any{filter.Value}, nil

	case domain.OpContains:
		if filter.Value == nil {
			return "", nil, apierr.NewValidation(path+".value", "is required for operator %q", filter.Operator)
		}
		pattern := "%" + escapeLike(fmt.Sprint(filter.Value)) + "%"
		if !isText(col.DeclaredType) {
			field = fmt.Sprintf("CAST(%s AS VARCHAR)", field)
		}
		return fmt.Sprintf(`%s LIKE ? ESCAPE '\'`, field), []any{pattern}, nil

	case domain.OpIn:
		values, ok := filter.Value.([]any)
		if !ok || len(values) == 0 {
			return "", nil, apierr.NewValidation(path+".value", "must be a non-empty array")
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
		return fmt.Sprintf("%s IN (%s)", field, placeholders), append([]any(nil), values...), nil

	case domain.OpBetween:
		values, ok := filter.Value.([]any)
		if !ok || len(values) != 2 {
			return "", nil, apierr.NewValidation(path+".value", "must contain exactly two values")
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", field), []any{values[0], values[1]}, nil

	case domain.OpIsNull:
		return field + " IS NULL", nil, nil

	case domain.OpIsNotNull:
		return field + " IS NOT NULL", nil, nil

	default:
		// unreachable after validation
		return "", nil, apierr.New(apierr.Internal, "unsupported filter operator: %q", filter.Operator).
			WithDetail("path", path+".op")
	}
}

// escapeLike escapes LIKE wildcards so the value matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// PassThrough prepares a raw SQL query. Text is left untouched; named parameters are
// bound as sql.Named arguments in name order and Limit becomes a row cap.
func PassThrough(q *domain.SQLQuery) domain.SQL {
	names := make([]string, 0, len(q.NamedParams))
	for name := range q.NamedParams {
		names = append(names, name)
	}
	sort.Strings(names)

	var args []any
	for _, name := range names {
		args = append(args, sql.Named(name, q.NamedParams[name]))
	}

	out := domain.SQL{Query: q.Text, Args: args}
	if q.Limit != nil {
		out.MaxRows = *q.Limit
	}
	return out
}
