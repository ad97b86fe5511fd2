package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(slog.LevelInfo, "json", &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("dataset loaded", "rows", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "dataset loaded", rec["msg"])
	assert.Equal(t, "airloom", rec["app"])
	assert.Equal(t, float64(3), rec["rows"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(slog.LevelWarn, "text", &buf)
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("careful")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "careful")

	_, err = New(slog.LevelInfo, "xml", &buf)
	assert.Error(t, err)
}
