package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir, "debug")
	require.NoError(t, err)

	l.LogInteraction("describe", map[string]string{"leaf": "/id"}, "text", nil)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"operation":"describe"`)
	assert.True(t, strings.HasPrefix(l.Path(), dir))
}

func TestLogInteractionError(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "error")

	l.LogInteraction("describe", "in", "out", nil)
	assert.Empty(t, buf.String(), "debug output filtered at error level")

	l.LogInteraction("describe", "in", nil, errors.New("timeout"))
	assert.Contains(t, buf.String(), "error=timeout")
	assert.NoError(t, l.Close())
	assert.Empty(t, l.Path())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("dropped")
	assert.NoError(t, l.Close())
}
