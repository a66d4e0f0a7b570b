package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Info("run started", "query", "assess anomalies")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run started", entry["msg"])
	assert.Equal(t, "assess anomalies", entry["query"])
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})

	log.Info("run started")
	assert.Contains(t, buf.String(), "run started")
}

func TestAutoFormatFallsBackToJSON(t *testing.T) {
	// A plain buffer is not a terminal, so auto selects JSON.
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "auto", Output: &buf})

	log.Info("probe")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Output: &buf})

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestScopedLoggers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.WithRun("RUN_AAAA0001").WithStage("model").WithAgent("Data Scientist").Info("stage started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "RUN_AAAA0001", entry["run_id"])
	assert.Equal(t, "model", entry["stage"])
	assert.Equal(t, "Data Scientist", entry["agent"])
}

func TestNewNopDiscards(t *testing.T) {
	log := NewNop()
	// Must not panic and must not write anywhere visible.
	log.Info("dropped")
}
