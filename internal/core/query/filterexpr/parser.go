// Package filterexpr parses the command line filter syntax into visual query filters.
//
//	amount > 10 and region in ("EU", "US") and note is not null
//
// Conditions are joined with and only; there is no or and no grouping, matching what a
// visual query can express.
package filterexpr

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

type expression struct {
	Conditions []*condition `@@ ( "and" @@ )*`
}

type condition struct {
	Pos lexer.Position

	Column   *column     `@@`
	Compare  *comparison `( @@`
	Contains *value      `  | "contains" @@`
	In       []*value    `  | "in" "(" @@ ( "," @@ )* ")"`
	Between  *between    `  | "between" @@`
	Null     *nullCheck  `  | "is" @@ )`
}

type column struct {
	Name   string `  @Ident`
	Quoted string `| @QuotedIdent`
}

func (c *column) String() string {
	if c.Quoted != "" {
		return strings.Trim(c.Quoted, "`")
	}
	return c.Name
}

type comparison struct {
	Op    string `@Operator`
	Value *value `@@`
}

type between struct {
	Low  *value `@@`
	High *value `"and" @@`
}

type nullCheck struct {
	Not bool `@"not"? "null"`
}

type value struct {
	String *string `  @String`
	Number *string `| @Number`
	Bool   *string `| @("true" | "false")`
}

func (v *value) literal() any {
	switch {
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		if n, err := strconv.ParseInt(*v.Number, 10, 64); err == nil {
			return n
		}
		f, _ := strconv.ParseFloat(*v.Number, 64)
		return f
	case v.Bool != nil:
		return strings.EqualFold(*v.Bool, "true")
	}
	return nil
}

var parser = participle.MustBuild[expression](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(2),
)

// Parse turns input into filters in source order. An empty input yields no filters.
func Parse(input string) ([]domain.Filter, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	expr, err := parser.ParseString("where", input)
	if err != nil {
		return nil, apierr.NewValidation("where", "invalid filter expression: %v", err)
	}

	filters := make([]domain.Filter, 0, len(expr.Conditions))
	for _, c := range expr.Conditions {
		filters = append(filters, c.filter())
	}
	return filters, nil
}

// ParseAll parses several expressions and concatenates their filters.
func ParseAll(inputs []string) ([]domain.Filter, error) {
	var out []domain.Filter
	for _, in := range inputs {
		filters, err := Parse(in)
		if err != nil {
			return nil, err
		}
		out = append(out, filters...)
	}
	return out, nil
}

func (c *condition) filter() domain.Filter {
	f := domain.Filter{Column: c.Column.String()}
	switch {
	case c.Compare != nil:
		f.Operator = domain.Operator(c.Compare.Op)
		if c.Compare.Op == "<>" {
			f.Operator = domain.OpNeq
		}
		f.Value = c.Compare.Value.literal()
	case c.Contains != nil:
		f.Operator = domain.OpContains
		f.Value = c.Contains.literal()
	case len(c.In) > 0:
		f.Operator = domain.OpIn
		values := make([]any, len(c.In))
		for i, v := range c.In {
			values[i] = v.literal()
		}
		f.Value = values
	case c.Between != nil:
		f.Operator = domain.OpBetween
		f.Value = []any{c.Between.Low.literal(), c.Between.High.literal()}
	case c.Null != nil:
		f.Operator = domain.OpIsNull
		if c.Null.Not {
			f.Operator = domain.OpIsNotNull
		}
	}
	return f
}
