// Package domain contains the core entities of the query pipeline.
package domain

// QuerySpec is a validated query request. It is implemented by *SQLQuery and *VisualQuery
// only; callers use a type switch over the two variants.
type QuerySpec interface {
	// Kind returns the wire tag of the variant.
	Kind() Kind
	isQuerySpec()
}

// Kind is the wire tag of a QuerySpec variant.
type Kind string

const (
	// KindSQL tags a raw SQL request.
	KindSQL Kind = "sql"
	// KindVisual tags a structured visual request.
	KindVisual Kind = "visual"
)

// SQLQuery is raw query text with optional named parameters.
type SQLQuery struct {
	Text        string
	NamedParams map[string]any
	// Limit caps the number of rows returned, nil for no cap.
	Limit *int
}

// Kind implements QuerySpec.
func (*SQLQuery) Kind() Kind { return KindSQL }

func (*SQLQuery) isQuerySpec() {}

// VisualQuery is a structured description of a single-table query.
type VisualQuery struct {
	Table   string
	Selects []VisualSelect
	Filters []Filter
	GroupBy []string
	OrderBy []OrderSpec
	Limit   *int
}

// Kind implements QuerySpec.
func (*VisualQuery) Kind() Kind { return KindVisual }

func (*VisualQuery) isQuerySpec() {}

// VisualSelect is one entry of the select list.
type VisualSelect struct {
	Column      string
	Aggregation Aggregation
	Alias       string
}

// OutputName returns the column name the entry produces in a result.
func (s VisualSelect) OutputName() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Column
}

// Aggregation is an aggregate function applied to a selected column.
type Aggregation string

const (
	AggNone  Aggregation = "none"
	AggSum   Aggregation = "sum"
	AggAvg   Aggregation = "avg"
	AggCount Aggregation = "count"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
)

// Aggregations lists the accepted aggregation names.
var Aggregations = []Aggregation{AggSum, AggAvg, AggCount, AggMin, AggMax, AggNone}

// Valid reports whether a is in the fixed enumeration.
func (a Aggregation) Valid() bool {
	for _, known := range Aggregations {
		if a == known {
			return true
		}
	}
	return false
}

// Filter is a single predicate on a column.
type Filter struct {
	Column   string
	Operator Operator
	// Value is a scalar for comparisons and contains, a slice for in and between,
	// and nil for the null checks.
	Value any
}

// Operator is a filter operator.
type Operator string

const (
	OpEq        Operator = "="
	OpNeq       Operator = "!="
	OpGt        Operator = ">"
	OpLt        Operator = "<"
	OpGte       Operator = ">="
	OpLte       Operator = "<="
	OpContains  Operator = "contains"
	OpIn        Operator = "in"
	OpBetween   Operator = "between"
	OpIsNull    Operator = "is_null"
	OpIsNotNull Operator = "is_not_null"
)

// Operators lists the accepted filter operators.
var Operators = []Operator{OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpContains, OpIn, OpBetween, OpIsNull, OpIsNotNull}

// Valid reports whether op is in the fixed enumeration.
func (op Operator) Valid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// TakesValue reports whether the operator needs a value.
func (op Operator) TakesValue() bool {
	return op != OpIsNull && op != OpIsNotNull
}

// OrderSpec orders the result by one column.
type OrderSpec struct {
	Column    string
	Direction SortDirection
}

// SortDirection represents sort direction.
type SortDirection string

const (
	// Asc sorts ascending.
	Asc SortDirection = "asc"
	// Desc sorts descending.
	Desc SortDirection = "desc"
)

// SQL is compiled query text plus its bound arguments.
type SQL struct {
	Query string
	Args  []any
	// MaxRows caps scanned rows, 0 for no cap.
	MaxRows int
}

// QueryOptions selects the result representation.
type QueryOptions struct {
	// Columnar selects the Arrow IPC representation. Defaults to true.
	Columnar bool
	// PageSize is the number of rows per page in row mode, 0 for all rows.
	PageSize int
	// Cursor is the opaque position returned as NextCursor by a previous page.
	Cursor string
}

// DefaultQueryOptions returns the columnar default.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Columnar: true}
}

// QueryHandle identifies a query in flight.
type QueryHandle struct {
	ID string `json:"id"`
}
