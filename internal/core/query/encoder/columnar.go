// Package encoder converts engine results into the columnar and paged wire representations.
package encoder

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// ContentType is the media type of a columnar buffer.
const ContentType = "application/vnd.apache.arrow.stream"

// SchemaField describes one column of a columnar buffer.
type SchemaField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ColumnarBuffer is an Arrow IPC stream holding the whole result as one record batch.
type ColumnarBuffer struct {
	Bytes  []byte        `json:"bytes"`
	Schema []SchemaField `json:"schema"`
	Rows   int           `json:"rows"`
}

// Columns derives the column set of res: engine order when known, otherwise the first
// row's keys sorted by name. No rows means no columns.
func Columns(res *domain.Result) []string {
	if res.Len() == 0 {
		return []string{}
	}
	if len(res.Columns) > 0 {
		return append([]string(nil), res.Columns...)
	}
	keys := make([]string, 0, len(res.Rows[0]))
	for k := range res.Rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Columnar encodes res as an Arrow IPC stream.
func Columnar(res *domain.Result) (*ColumnarBuffer, error) {
	return ColumnarWithAllocator(res, memory.NewGoAllocator())
}

// ColumnarWithAllocator encodes res using mem for Arrow buffers.
func ColumnarWithAllocator(res *domain.Result, mem memory.Allocator) (*ColumnarBuffer, error) {
	if res == nil {
		res = &domain.Result{}
	}
	names := Columns(res)

	cols := make([]column, len(names))
	fields := make([]arrow.Field, len(names))
	out := &ColumnarBuffer{Schema: make([]SchemaField, len(names)), Rows: res.Len()}
	for i, name := range names {
		values := make([]any, res.Len())
		for r, row := range res.Rows {
			values[r] = row[name]
		}
		cols[i] = resolveColumn(name, values)
		fields[i] = arrow.Field{Name: name, Type: cols[i].typ, Nullable: true}
		out.Schema[i] = SchemaField{Name: name, Type: cols[i].typ.String(), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for i, col := range cols {
		fb := builder.Field(i)
		fb.Reserve(res.Len())
		for _, row := range res.Rows {
			if err := appendValue(fb, col, row[col.name]); err != nil {
				return nil, fmt.Errorf("column %q: %w", col.name, err)
			}
		}
	}

	var rec arrow.Record
	if len(cols) == 0 {
		rec = array.NewRecord(schema, nil, 0)
	} else {
		rec = builder.NewRecord()
	}
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := w.Write(rec); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write record batch: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close stream: %w", err)
	}

	out.Bytes = buf.Bytes()
	return out, nil
}

func appendValue(b array.Builder, col column, v any) error {
	if classify(v) == kindNull {
		b.AppendNull()
		return nil
	}

	switch col.kind {
	case kindBool:
		b.(*array.BooleanBuilder).Append(v.(bool))
	case kindInt:
		n, ok := asInt64(v)
		if !ok {
			return fmt.Errorf("cannot encode %T as int64", v)
		}
		b.(*array.Int64Builder).Append(n)
	case kindFloat:
		f, ok := asFloat64(v)
		if !ok {
			return fmt.Errorf("cannot encode %T as float64", v)
		}
		b.(*array.Float64Builder).Append(f)
	case kindDecimal, kindBigInt:
		d, ok := asDecimal(v)
		if !ok {
			return fmt.Errorf("cannot encode %T as decimal", v)
		}
		b.(*array.Decimal128Builder).Append(decimal128.FromBigInt(scaledCoefficient(d, col.scale)))
	case kindTime:
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(v.(time.Time).UnixMicro()))
	case kindBytes:
		b.(*array.BinaryBuilder).Append(v.([]byte))
	default:
		b.(*array.StringBuilder).Append(stringify(v))
	}
	return nil
}
