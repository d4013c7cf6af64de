package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithFormat(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("split", "error", errors.New("boom"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"err":"boom"`)

	_, err = NewWithFormat(&buf, slog.LevelInfo, "xml")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("dropped", "err", errors.New("boom"))
}
