// Package validator turns untyped request payloads into well-formed query variants.
package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Issue is one problem found in a payload.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// issues collects every problem found while walking a payload.
type issues []Issue

func (is *issues) add(path, format string, args ...any) {
	*is = append(*is, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (is issues) err(subject string) error {
	if len(is) == 0 {
		return nil
	}
	first := is[0]
	msg := first.Message
	if first.Path != "" {
		msg = first.Path + ": " + msg
	}
	return apierr.NewValidation(first.Path, "invalid %s: %s", subject, msg).
		WithDetail("issues", []Issue(is))
}

// field describes an accepted key and its long-form alias.
type field struct {
	name  string
	alias string
}

// object is a decoded JSON/YAML object with alias-aware field access.
type object struct {
	path string
	m    map[string]any
}

func asObject(v any, path string, is *issues) (object, bool) {
	switch m := v.(type) {
	case map[string]any:
		return object{path: path, m: m}, true
	case map[any]any:
		converted := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				is.add(path, "object keys must be strings")
				return object{}, false
			}
			converted[ks] = val
		}
		return object{path: path, m: converted}, true
	case nil:
		is.add(path, "is required")
	default:
		is.add(path, "must be an object, got %s", typeName(v))
	}
	return object{}, false
}

func (o object) sub(name string) string {
	if o.path == "" {
		return name
	}
	return o.path + "." + name
}

// get returns the value of f, accepting either spelling but not both.
func (o object) get(f field, is *issues) (any, string, bool) {
	v, ok := o.m[f.name]
	if f.alias == "" {
		return v, o.sub(f.name), ok
	}
	av, aok := o.m[f.alias]
	switch {
	case ok && aok:
		is.add(o.sub(f.name), "both %q and %q given", f.name, f.alias)
		return v, o.sub(f.name), true
	case aok:
		return av, o.sub(f.alias), true
	default:
		return v, o.sub(f.name), ok
	}
}

// rejectUnknown reports keys outside the accepted field set.
func (o object) rejectUnknown(fields []field, is *issues) {
	known := map[string]bool{}
	for _, f := range fields {
		known[f.name] = true
		if f.alias != "" {
			known[f.alias] = true
		}
	}
	keys := make([]string, 0, len(o.m))
	for k := range o.m {
		if !known[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		is.add(o.sub(k), "unknown field")
	}
}

var (
	kindField = field{name: "kind"}

	sqlFields = []field{
		kindField,
		{name: "sql", alias: "text"},
		{name: "params", alias: "namedParams"},
		{name: "limit"},
	}

	visualFields = []field{
		kindField,
		{name: "table"},
		{name: "select", alias: "selects"},
		{name: "filters"},
		{name: "groupBy"},
		{name: "orderBy"},
		{name: "limit"},
	}

	selectFields = []field{
		{name: "col", alias: "column"},
		{name: "agg", alias: "aggregation"},
		{name: "as", alias: "alias"},
	}

	filterFields = []field{
		{name: "col", alias: "column"},
		{name: "op", alias: "operator"},
		{name: "value"},
	}

	orderFields = []field{
		{name: "col", alias: "column"},
		{name: "dir", alias: "direction"},
	}
)

// ParseQuerySpec validates payload and returns the matching QuerySpec variant.
// Every failure is a VALIDATION *apierr.Error listing all issues found.
func ParseQuerySpec(payload any) (domain.QuerySpec, error) {
	var is issues

	obj, ok := asObject(payload, "", &is)
	if !ok {
		return nil, is.err("query spec")
	}

	rawKind, kindPath, present := obj.get(kindField, &is)
	if !present {
		is.add("kind", "is required (one of %q, %q)", domain.KindSQL, domain.KindVisual)
		return nil, is.err("query spec")
	}
	kind, ok := rawKind.(string)
	if !ok {
		is.add(kindPath, "must be a string, got %s", typeName(rawKind))
		return nil, is.err("query spec")
	}

	var spec domain.QuerySpec
	switch domain.Kind(kind) {
	case domain.KindSQL:
		spec = parseSQL(obj, &is)
	case domain.KindVisual:
		spec = parseVisual(obj, &is)
	default:
		is.add(kindPath, "unknown kind %q (want %q or %q)", kind, domain.KindSQL, domain.KindVisual)
	}

	if err := is.err("query spec"); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseSQL(obj object, is *issues) *domain.SQLQuery {
	obj.rejectUnknown(sqlFields, is)

	q := &domain.SQLQuery{}

	raw, path, ok := obj.get(sqlFields[1], is)
	if !ok {
		is.add(path, "is required")
	} else if text, isStr := raw.(string); !isStr {
		is.add(path, "must be a string, got %s", typeName(raw))
	} else if strings.TrimSpace(text) == "" {
		is.add(path, "must not be empty")
	} else {
		q.Text = text
	}

	if raw, path, ok := obj.get(sqlFields[2], is); ok && raw != nil {
		if params, pok := asObject(raw, path, is); pok {
			q.NamedParams = make(map[string]any, len(params.m))
			for name, v := range params.m {
				vpath := params.sub(name)
				if !paramNamePattern.MatchString(name) {
					is.add(vpath, "parameter name must be an identifier")
					continue
				}
				if v == nil {
					q.NamedParams[name] = nil
					continue
				}
				if s, sok := scalar(v); sok {
					q.NamedParams[name] = s
				} else {
					is.add(vpath, "must be a scalar, got %s", typeName(v))
				}
			}
		}
	}

	q.Limit = parseLimit(obj, is)
	return q
}

func parseVisual(obj object, is *issues) *domain.VisualQuery {
	obj.rejectUnknown(visualFields, is)

	q := &domain.VisualQuery{}

	q.Table = requiredString(obj, visualFields[1], is)

	raw, path, ok := obj.get(visualFields[2], is)
	if !ok {
		is.add(path, "is required")
	} else if items, aok := asArray(raw, path, is); aok {
		if len(items) == 0 {
			is.add(path, "must contain at least one column")
		}
		for i, item := range items {
			if sel, sok := parseSelect(item, fmt.Sprintf("%s[%d]", path, i), is); sok {
				q.Selects = append(q.Selects, sel)
			}
		}
	}

	if raw, path, ok := obj.get(visualFields[3], is); ok && raw != nil {
		if items, aok := asArray(raw, path, is); aok {
			for i, item := range items {
				if f, fok := parseFilter(item, fmt.Sprintf("%s[%d]", path, i), is); fok {
					q.Filters = append(q.Filters, f)
				}
			}
		}
	}

	if raw, path, ok := obj.get(visualFields[4], is); ok && raw != nil {
		if items, aok := asArray(raw, path, is); aok {
			for i, item := range items {
				col, sok := item.(string)
				ipath := fmt.Sprintf("%s[%d]", path, i)
				switch {
				case !sok:
					is.add(ipath, "must be a string, got %s", typeName(item))
				case strings.TrimSpace(col) == "":
					is.add(ipath, "must not be empty")
				default:
					q.GroupBy = append(q.GroupBy, col)
				}
			}
		}
	}

	if raw, path, ok := obj.get(visualFields[5], is); ok && raw != nil {
		if items, aok := asArray(raw, path, is); aok {
			for i, item := range items {
				if o, ook := parseOrder(item, fmt.Sprintf("%s[%d]", path, i), is); ook {
					q.OrderBy = append(q.OrderBy, o)
				}
			}
		}
	}

	q.Limit = parseLimit(obj, is)
	return q
}

func parseSelect(v any, path string, is *issues) (domain.VisualSelect, bool) {
	obj, ok := asObject(v, path, is)
	if !ok {
		return domain.VisualSelect{}, false
	}
	obj.rejectUnknown(selectFields, is)

	sel := domain.VisualSelect{
		Column:      requiredString(obj, selectFields[0], is),
		Aggregation: domain.AggNone,
	}

	if raw, apath, present := obj.get(selectFields[1], is); present && raw != nil {
		name, sok := raw.(string)
		agg := domain.Aggregation(strings.ToLower(name))
		switch {
		case !sok:
			is.add(apath, "must be a string, got %s", typeName(raw))
		case !agg.Valid():
			is.add(apath, "unknown aggregation %q (want one of %s)", name, joinAggs())
		default:
			sel.Aggregation = agg
		}
	}

	if raw, apath, present := obj.get(selectFields[2], is); present && raw != nil {
		alias, sok := raw.(string)
		switch {
		case !sok:
			is.add(apath, "must be a string, got %s", typeName(raw))
		case strings.TrimSpace(alias) == "":
			is.add(apath, "must not be empty")
		default:
			sel.Alias = alias
		}
	}

	return sel, true
}

func parseFilter(v any, path string, is *issues) (domain.Filter, bool) {
	obj, ok := asObject(v, path, is)
	if !ok {
		return domain.Filter{}, false
	}
	obj.rejectUnknown(filterFields, is)

	f := domain.Filter{Column: requiredString(obj, filterFields[0], is)}

	raw, opPath, present := obj.get(filterFields[1], is)
	if !present {
		is.add(opPath, "is required")
		return f, false
	}
	name, sok := raw.(string)
	if !sok {
		is.add(opPath, "must be a string, got %s", typeName(raw))
		return f, false
	}
	op := domain.Operator(strings.ToLower(name))
	if !op.Valid() {
		is.add(opPath, "unknown operator %q (want one of %s)", name, joinOps())
		return f, false
	}
	f.Operator = op

	value, valuePath, hasValue := obj.get(filterFields[2], is)
	if !op.TakesValue() {
		if hasValue && value != nil {
			is.add(valuePath, "must be omitted for operator %q", op)
		}
		return f, true
	}
	if !hasValue || value == nil {
		is.add(valuePath, "is required for operator %q", op)
		return f, false
	}

	switch op {
	case domain.OpIn:
		items, aok := asArray(value, valuePath, is)
		if !aok {
			return f, false
		}
		if len(items) == 0 {
			is.add(valuePath, "must contain at least one value")
			return f, false
		}
		f.Value = scalars(items, valuePath, is)
	case domain.OpBetween:
		items, aok := asArray(value, valuePath, is)
		if !aok {
			return f, false
		}
		if len(items) != 2 {
			is.add(valuePath, "must contain exactly two values, got %d", len(items))
			return f, false
		}
		f.Value = scalars(items, valuePath, is)
	default:
		s, scalarOK := scalar(value)
		if !scalarOK {
			is.add(valuePath, "must be a scalar, got %s", typeName(value))
			return f, false
		}
		f.Value = s
	}

	return f, true
}

func parseOrder(v any, path string, is *issues) (domain.OrderSpec, bool) {
	obj, ok := asObject(v, path, is)
	if !ok {
		return domain.OrderSpec{}, false
	}
	obj.rejectUnknown(orderFields, is)

	o := domain.OrderSpec{
		Column: requiredString(obj, orderFields[0], is),
	}

	raw, dpath, present := obj.get(orderFields[1], is)
	if !present {
		is.add(dpath, "is required (asc or desc)")
		return o, false
	}
	dir, sok := raw.(string)
	if !sok {
		is.add(dpath, "must be a string, got %s", typeName(raw))
		return o, false
	}
	switch domain.SortDirection(strings.ToLower(dir)) {
	case domain.Asc:
		o.Direction = domain.Asc
	case domain.Desc:
		o.Direction = domain.Desc
	default:
		is.add(dpath, "unknown direction %q (want asc or desc)", dir)
		return o, false
	}
	return o, true
}

func parseLimit(obj object, is *issues) *int {
	raw, path, ok := obj.get(field{name: "limit"}, is)
	if !ok || raw == nil {
		return nil
	}
	n, ok := PositiveInt(raw)
	if !ok {
		is.add(path, "must be a positive integer, got %v", raw)
		return nil
	}
	return &n
}

func requiredString(obj object, f field, is *issues) string {
	raw, path, ok := obj.get(f, is)
	if !ok || raw == nil {
		is.add(path, "is required")
		return ""
	}
	s, sok := raw.(string)
	if !sok {
		is.add(path, "must be a string, got %s", typeName(raw))
		return ""
	}
	if strings.TrimSpace(s) == "" {
		is.add(path, "must not be empty")
		return ""
	}
	return s
}

func asArray(v any, path string, is *issues) ([]any, bool) {
	switch items := v.(type) {
	case []any:
		return items, true
	case []string:
		out := make([]any, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out, true
	default:
		is.add(path, "must be an array, got %s", typeName(v))
		return nil, false
	}
}

func scalars(items []any, path string, is *issues) []any {
	out := make([]any, 0, len(items))
	for i, item := range items {
		s, ok := scalar(item)
		if !ok || item == nil {
			is.add(fmt.Sprintf("%s[%d]", path, i), "must be a scalar, got %s", typeName(item))
			continue
		}
		out = append(out, s)
	}
	return out
}

// scalar normalizes a decoded JSON/YAML scalar. Integral numbers become int64,
// other numbers float64.
func scalar(v any) (any, bool) {
	switch n := v.(type) {
	case string, bool:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return f, err == nil
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n), true
		}
		return n, true
	case float32:
		return scalar(float64(n))
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return nil, false
		}
		return int64(n), true
	}
	return nil, false
}

// PositiveInt accepts any decoded integral number greater than zero.
func PositiveInt(v any) (int, bool) {
	s, ok := scalar(v)
	if !ok {
		return 0, false
	}
	n, ok := s.(int64)
	if !ok || n <= 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any, map[any]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func joinAggs() string {
	names := make([]string, len(domain.Aggregations))
	for i, a := range domain.Aggregations {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func joinOps() string {
	names := make([]string, len(domain.Operators))
	for i, op := range domain.Operators {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}
