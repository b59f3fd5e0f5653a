package debug

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Options{Output: &bytes.Buffer{}}) })

	With("component", "engine").Debug("dispatched", "seq", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dispatched", entry["msg"])
	assert.Equal(t, "engine", entry["component"])
	assert.EqualValues(t, 3, entry["seq"])
	assert.True(t, Enabled())
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(Options{Output: &bytes.Buffer{}}) })

	Info("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.False(t, Enabled())
}
