package compiler

import (
	"regexp"
	"strings"
)

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved holds keywords that must be quoted when used as identifiers.
var reserved = map[string]bool{
	"all": true, "and": true, "any": true, "as": true, "asc": true, "between": true,
	"by": true, "case": true, "cast": true, "check": true, "column": true, "create": true,
	"cross": true, "default": true, "delete": true, "desc": true, "distinct": true,
	"drop": true, "else": true, "end": true, "except": true, "exists": true, "false": true,
	"from": true, "full": true, "group": true, "having": true, "in": true, "inner": true,
	"insert": true, "intersect": true, "into": true, "is": true, "join": true, "left": true,
	"like": true, "limit": true, "natural": true, "not": true, "null": true, "offset": true,
	"on": true, "or": true, "order": true, "outer": true, "primary": true, "references": true,
	"right": true, "select": true, "table": true, "then": true, "to": true, "true": true,
	"union": true, "unique": true, "update": true, "user": true, "using": true,
	"values": true, "when": true, "where": true, "window": true, "with": true,
}

// IsPlainIdentifier reports whether name can be emitted without quotes.
func IsPlainIdentifier(name string) bool {
	return plainIdent.MatchString(name) && !reserved[strings.ToLower(name)]
}

// QuoteIdent emits name bare when it is a plain word and double-quoted otherwise.
func QuoteIdent(name string) string {
	if IsPlainIdentifier(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral renders s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
