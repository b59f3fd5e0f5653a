package encoder

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/shopspring/decimal"
)

// valueKind classifies one scanned value for column type unification.
type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindInt
	kindFloat
	kindDecimal
	kindBigInt
	kindTime
	kindBytes
	kindString
)

func classify(v any) valueKind {
	switch val := v.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return kindInt
	case uint:
		if uint64(val) > math.MaxInt64 {
			return kindBigInt
		}
		return kindInt
	case uint64:
		if val > math.MaxInt64 {
			return kindBigInt
		}
		return kindInt
	case float32, float64:
		return kindFloat
	case decimal.Decimal:
		return kindDecimal
	case *big.Int:
		if val == nil {
			return kindNull
		}
		return kindBigInt
	case time.Time:
		return kindTime
	case []byte:
		return kindBytes
	}
	return kindString
}

// unify merges two value kinds into the narrowest kind that holds both.
func unify(a, b valueKind) valueKind {
	if a == kindNull {
		return b
	}
	if b == kindNull || a == b {
		return a
	}
	if a > b {
		a, b = b, a
	}
	switch {
	case a == kindInt && b == kindFloat:
		return kindFloat
	case a == kindInt && (b == kindDecimal || b == kindBigInt):
		return b
	case a == kindFloat && (b == kindDecimal || b == kindBigInt):
		return kindFloat
	case a == kindDecimal && b == kindBigInt:
		return kindDecimal
	}
	return kindString
}

// column is the resolved Arrow type of one result column.
type column struct {
	name  string
	kind  valueKind
	scale int32
	typ   arrow.DataType
}

const decimalPrecision = 38

var maxDecimal128 = new(big.Int).Exp(big.NewInt(10), big.NewInt(decimalPrecision), nil)

func resolveColumn(name string, values []any) column {
	kind := kindNull
	for _, v := range values {
		kind = unify(kind, classify(v))
	}

	col := column{name: name, kind: kind}
	switch kind {
	case kindBool:
		col.typ = arrow.FixedWidthTypes.Boolean
	case kindInt:
		col.typ = arrow.PrimitiveTypes.Int64
	case kindFloat:
		col.typ = arrow.PrimitiveTypes.Float64
	case kindDecimal, kindBigInt:
		scale, ok := decimalScale(values)
		if !ok {
			col.kind = kindString
			col.typ = arrow.BinaryTypes.String
			break
		}
		col.scale = scale
		col.typ = &arrow.Decimal128Type{Precision: decimalPrecision, Scale: scale}
	case kindTime:
		col.typ = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	case kindBytes:
		col.typ = arrow.BinaryTypes.Binary
	default:
		col.kind = kindString
		col.typ = arrow.BinaryTypes.String
	}
	return col
}

// decimalScale picks the largest scale in the column and checks every value fits
// decimal128 at that scale.
func decimalScale(values []any) (int32, bool) {
	var scale int32
	for _, v := range values {
		if d, ok := asDecimal(v); ok && -d.Exponent() > scale {
			scale = -d.Exponent()
		}
	}
	for _, v := range values {
		d, ok := asDecimal(v)
		if !ok {
			continue
		}
		if scaledCoefficient(d, scale).CmpAbs(maxDecimal128) >= 0 {
			return 0, false
		}
	}
	return scale, true
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case *big.Int:
		if val == nil {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromBigInt(val, 0), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(val)), 0), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(val), 0), true
	}
	if n, ok := asInt64(v); ok {
		return decimal.NewFromInt(n), true
	}
	return decimal.Decimal{}, false
}

// scaledCoefficient returns d * 10^scale as an integer.
func scaledCoefficient(d decimal.Decimal, scale int32) *big.Int {
	return d.Shift(scale).BigInt()
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
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
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) <= math.MaxInt64 {
			return int64(n), true
		}
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	}
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	if d, ok := asDecimal(v); ok {
		f, _ := d.Float64()
		return f, true
	}
	return 0, false
}

// stringify renders any value as text for utf8 columns.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case decimal.Decimal:
		return val.String()
	case *big.Int:
		return val.String()
	case fmt.Stringer:
		return val.String()
	case map[string]any, []any:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}
