package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/LavaJover/shvark-monetico-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "json", slog.LevelInfo)

	log.Debug("hidden")
	log.Info("notification accepted", "reference", "ABERTYP00145")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "notification accepted", entry["msg"])
	assert.Equal(t, "ABERTYP00145", entry["reference"])
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "text", slog.LevelDebug).Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{LogLevel: "loud"})
	assert.Error(t, err)
}
