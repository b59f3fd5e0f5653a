package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(file, []byte("a\n1\n"), 0o644))

	var calls atomic.Int32
	w, err := NewWatcher(file, 50*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })
	assert.Equal(t, int32(1), calls.Load())

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(file, []byte("a\n1\n2\n"), 0o644))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(file, []byte("a\n"), 0o644))

	var calls atomic.Int32
	w, err := NewWatcher(file, 20*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("b\n"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_InitialFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sales.csv")
	w, err := NewWatcher(file, 0, func(context.Context) error { return errors.New("bad file") })
	require.NoError(t, err)
	defer w.Stop()

	err = w.Start(context.Background())
	assert.ErrorContains(t, err, "bad file")
}

func TestWatcher_StopsWithContext(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sales.csv")
	w, err := NewWatcher(file, 0, func(context.Context) error { return nil })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.NoError(t, w.Stop())
}
