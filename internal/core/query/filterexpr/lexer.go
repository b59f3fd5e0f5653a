package filterexpr

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// filterLexer tokenizes filter expressions such as `amount > 10 and region in ("EU", "US")`.
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Keywords
	{Name: "Keyword", Pattern: `(?i)\b(and|in|between|contains|is|not|null|true|false)\b`},

	// Literals
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`},

	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "QuotedIdent", Pattern: "`[^`]+`"},

	// Operators and punctuation
	{Name: "Operator", Pattern: `!=|<>|>=|<=|=|>|<`},
	{Name: "Punct", Pattern: `[(),]`},

	{Name: "Whitespace", Pattern: `\s+`},
})
