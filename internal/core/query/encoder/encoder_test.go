package encoder

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

func readStream(t *testing.T, buf *ColumnarBuffer) (*arrow.Schema, []arrow.Record) {
	t.Helper()
	r, err := ipc.NewReader(bytes.NewReader(buf.Bytes))
	require.NoError(t, err)
	defer r.Release()

	var recs []arrow.Record
	for r.Next() {
		rec := r.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	require.NoError(t, r.Err())
	t.Cleanup(func() {
		for _, rec := range recs {
			rec.Release()
		}
	})
	return r.Schema(), recs
}

func TestColumnar_TypesAndOrder(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &domain.Result{
		Columns: []string{"region", "n", "ratio", "amount", "at", "ok", "blob"},
		Rows: []domain.Row{
			{"region": "EU", "n": int64(3), "ratio": int64(1), "amount": decimal.RequireFromString("12.5"), "at": ts, "ok": true, "blob": []byte{1, 2}},
			{"region": nil, "n": int32(4), "ratio": 0.5, "amount": decimal.RequireFromString("7.25"), "at": nil, "ok": false},
		},
	}

	buf, err := ColumnarWithAllocator(res, memory.NewGoAllocator())
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Rows)

	schema, recs := readStream(t, buf)
	require.Len(t, recs, 1)
	rec := recs[0]

	names := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	assert.Equal(t, res.Columns, names)

	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(1).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Float64, schema.Field(2).Type)
	assert.Equal(t, &arrow.Decimal128Type{Precision: 38, Scale: 2}, schema.Field(3).Type)
	assert.Equal(t, arrow.TIMESTAMP, schema.Field(4).Type.ID())
	assert.Equal(t, arrow.FixedWidthTypes.Boolean, schema.Field(5).Type)
	assert.Equal(t, arrow.BinaryTypes.Binary, schema.Field(6).Type)

	region := rec.Column(0).(*array.String)
	assert.Equal(t, "EU", region.Value(0))
	assert.True(t, region.IsNull(1))

	n := rec.Column(1).(*array.Int64)
	assert.Equal(t, []int64{3, 4}, n.Int64Values())

	ratio := rec.Column(2).(*array.Float64)
	assert.Equal(t, []float64{1, 0.5}, ratio.Float64Values())

	amount := rec.Column(3).(*array.Decimal128)
	assert.Equal(t, "12.50", decimal.NewFromBigInt(amount.Value(0).BigInt(), -2).StringFixed(2))
	assert.Equal(t, int64(725), amount.Value(1).BigInt().Int64())

	at := rec.Column(4).(*array.Timestamp)
	assert.Equal(t, arrow.Timestamp(ts.UnixMicro()), at.Value(0))
	assert.True(t, at.IsNull(1))

	blob := rec.Column(6).(*array.Binary)
	assert.Equal(t, []byte{1, 2}, blob.Value(0))
	assert.True(t, blob.IsNull(1))
}

func TestColumnar_EmptyResult(t *testing.T) {
	for _, res := range []*domain.Result{
		nil,
		{Columns: []string{"a", "b"}, Rows: []domain.Row{}},
	} {
		buf, err := Columnar(res)
		require.NoError(t, err)
		assert.Empty(t, buf.Schema)
		assert.Zero(t, buf.Rows)

		schema, recs := readStream(t, buf)
		assert.Zero(t, schema.NumFields())
		for _, rec := range recs {
			assert.Zero(t, rec.NumRows())
		}
	}
}

func TestColumnar_MixedColumnsFallBackToText(t *testing.T) {
	res := &domain.Result{
		Columns: []string{"mixed", "huge"},
		Rows: []domain.Row{
			{"mixed": "a", "huge": new(big.Int).Lsh(big.NewInt(1), 200)},
			{"mixed": int64(1), "huge": int64(2)},
		},
	}

	buf, err := Columnar(res)
	require.NoError(t, err)
	schema, recs := readStream(t, buf)

	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(0).Type)
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(1).Type)
	mixed := recs[0].Column(0).(*array.String)
	assert.Equal(t, "1", mixed.Value(1))
}

func TestColumnar_MissingKeysAreNull(t *testing.T) {
	res := &domain.Result{
		Columns: []string{"a", "b"},
		Rows:    []domain.Row{{"a": int64(1), "b": "x"}, {"a": int64(2)}},
	}

	buf, err := Columnar(res)
	require.NoError(t, err)
	_, recs := readStream(t, buf)
	assert.True(t, recs[0].Column(1).IsNull(1))
}

func TestColumns_FallsBackToFirstRowKeys(t *testing.T) {
	res := &domain.Result{Rows: []domain.Row{{"b": 1, "a": 2}}}
	assert.Equal(t, []string{"a", "b"}, Columns(res))
	assert.Equal(t, []string{}, Columns(&domain.Result{Columns: []string{"x"}}))
}

func TestPaged_EmptyResult(t *testing.T) {
	page, err := Paged(&domain.Result{Columns: []string{"region"}, Rows: []domain.Row{}}, 50, "")
	require.NoError(t, err)

	out, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[],"rows":[],"totalRows":0}`, string(out))
}

func TestPaged_Cursor(t *testing.T) {
	res := &domain.Result{Columns: []string{"i"}}
	for i := 0; i < 5; i++ {
		res.Rows = append(res.Rows, domain.Row{"i": int64(i)})
	}

	page, err := Paged(res, 2, "")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(0)}, {int64(1)}}, page.Rows)
	assert.Equal(t, 5, page.TotalRows)
	require.NotEmpty(t, page.NextCursor)

	page, err = Paged(res, 2, page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(2)}, {int64(3)}}, page.Rows)

	page, err = Paged(res, 2, page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(4)}}, page.Rows)
	assert.Empty(t, page.NextCursor)

	all, err := Paged(res, 0, "")
	require.NoError(t, err)
	assert.Len(t, all.Rows, 5)
	assert.Empty(t, all.NextCursor)
}

func TestPaged_RowShape(t *testing.T) {
	res := &domain.Result{
		Columns: []string{"a", "amount", "big", "raw"},
		Rows: []domain.Row{
			{"a": "x", "amount": decimal.RequireFromString("0.10"), "big": new(big.Int).Lsh(big.NewInt(1), 70), "raw": []byte("hi")},
			{"a": "y"},
		},
	}

	page, err := Paged(res, 0, "")
	require.NoError(t, err)
	for _, row := range page.Rows {
		assert.Len(t, row, len(page.Columns))
	}
	assert.Equal(t, []any{"x", "0.1", "1180591620717411303424", "aGk="}, page.Rows[0])
	assert.Equal(t, []any{"y", nil, nil, nil}, page.Rows[1])
}

func TestPaged_BadCursor(t *testing.T) {
	res := &domain.Result{Columns: []string{"i"}, Rows: []domain.Row{{"i": 1}}}

	for _, cursor := range []string{"%%%", EncodeCursor(9), "bm9wZQ=="} {
		_, err := Paged(res, 1, cursor)
		require.Error(t, err)
		assert.Equal(t, apierr.Validation, apierr.CodeOf(err))
	}

	_, err := Paged(res, -1, "")
	assert.Equal(t, apierr.Validation, apierr.CodeOf(err))
}

func TestCursorRoundTrip(t *testing.T) {
	n, err := DecodeCursor(EncodeCursor(1234))
	require.NoError(t, err)
	assert.Equal(t, 1234, n)
}
