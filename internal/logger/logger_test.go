package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	flush := Init(Options{Output: &buf})
	defer flush()

	slog.Debug("hidden")
	slog.Info("snapshot saved", "profile_id", "p1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "snapshot saved", entry["msg"])
	assert.Equal(t, "p1", entry["profile_id"])
}

func TestInit_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	flush := Init(Options{Development: true, Output: &buf})
	defer flush()

	slog.Debug("navigated", "direction", "prev")

	assert.Contains(t, buf.String(), "navigated")
	assert.Contains(t, buf.String(), "direction=prev")
}
