package validator

import (
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

var optionFields = []field{
	{name: "columnar", alias: "arrow"},
	{name: "pageSize"},
	{name: "cursor"},
}

// ParseQueryOptions validates the result representation options. A nil payload yields
// DefaultQueryOptions.
func ParseQueryOptions(payload any) (domain.QueryOptions, error) {
	opts := domain.DefaultQueryOptions()
	if payload == nil {
		return opts, nil
	}

	var is issues
	obj, ok := asObject(payload, "options", &is)
	if !ok {
		return opts, is.err("query options")
	}
	obj.rejectUnknown(optionFields, &is)

	if raw, path, ok := obj.get(optionFields[0], &is); ok && raw != nil {
		if b, bok := raw.(bool); bok {
			opts.Columnar = b
		} else {
			is.add(path, "must be a boolean, got %s", typeName(raw))
		}
	}

	if raw, path, ok := obj.get(optionFields[1], &is); ok && raw != nil {
		if n, nok := PositiveInt(raw); nok {
			opts.PageSize = n
		} else {
			is.add(path, "must be a positive integer, got %v", raw)
		}
	}

	if raw, path, ok := obj.get(optionFields[2], &is); ok && raw != nil {
		if s, sok := raw.(string); sok {
			opts.Cursor = s
		} else {
			is.add(path, "must be a string, got %s", typeName(raw))
		}
	}

	if err := is.err("query options"); err != nil {
		return domain.DefaultQueryOptions(), err
	}
	return opts, nil
}
