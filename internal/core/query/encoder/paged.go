package encoder

import (
	"encoding/base64"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// PagedRows is one page of a row-oriented result.
type PagedRows struct {
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	TotalRows  int      `json:"totalRows"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// Paged returns the page of res starting at cursor. pageSize 0 returns every remaining row.
// Every row holds exactly len(Columns) values; missing keys become nil.
func Paged(res *domain.Result, pageSize int, cursor string) (*PagedRows, error) {
	if res == nil {
		res = &domain.Result{}
	}
	if pageSize < 0 {
		return nil, apierr.NewValidation("pageSize", "must not be negative")
	}
	offset, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	total := res.Len()
	if offset > total {
		return nil, apierr.NewValidation("cursor", "cursor is past the end of the result")
	}

	end := total
	if pageSize > 0 && offset+pageSize < total {
		end = offset + pageSize
	}

	columns := Columns(res)
	out := &PagedRows{
		Columns:   columns,
		Rows:      make([][]any, 0, end-offset),
		TotalRows: total,
	}
	for _, row := range res.Rows[offset:end] {
		values := make([]any, len(columns))
		for i, name := range columns {
			values[i] = jsonValue(row[name])
		}
		out.Rows = append(out.Rows, values)
	}
	if end < total {
		out.NextCursor = EncodeCursor(end)
	}
	return out, nil
}

// EncodeCursor returns the opaque cursor for a row offset.
func EncodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor returns the row offset of cursor, 0 for the empty cursor.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, apierr.NewValidation("cursor", "malformed cursor")
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, apierr.NewValidation("cursor", "malformed cursor")
	}
	return offset, nil
}

// jsonValue maps engine values to JSON-safe equivalents without losing precision.
func jsonValue(v any) any {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.String()
	case *big.Int:
		if val == nil {
			return nil
		}
		return val.String()
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return strconv.FormatFloat(val, 'g', -1, 64)
		}
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return strconv.FormatFloat(float64(val), 'g', -1, 32)
		}
	case uint64:
		if val > math.MaxInt64 {
			return strconv.FormatUint(val, 10)
		}
	}
	return v
}
