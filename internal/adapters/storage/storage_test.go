package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_ReadWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.WriteStream(ctx, "data/sales.csv", strings.NewReader("a,b\n1,2\n")))

	info, err := s.Stat(ctx, "data/sales.csv")
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", info.Name)
	assert.Equal(t, int64(8), info.Size)

	r, err := s.ReadStream(ctx, "/data/sales.csv")
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(content))
}

func TestMemoryStorage_Missing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	_, err := s.Stat(ctx, "nope.csv")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.ReadStream(ctx, "nope.csv")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, s.Delete(ctx, "nope.csv"))
}

func TestStorage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStorage().Stat(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewStorage(t *testing.T) {
	s, err := NewStorage(&Config{Type: "memory"})
	require.NoError(t, err)
	assert.NotNil(t, s)

	fs, err := NewStorage(nil)
	require.NoError(t, err)
	abs, err := fs.Resolve("x.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(abs, "x.csv"))

	_, err = NewStorage(&Config{Type: "s3"})
	assert.Error(t, err)
}
