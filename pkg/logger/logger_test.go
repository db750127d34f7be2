package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wz-hub/a-stock-scanner/pkg/config"
)

func TestNewSetsGlobalLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{" warning ", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug").
		WithModule("collector").
		WithFields(map[string]interface{}{"instrument_code": "600000", "attempt": 2}).
		WithError(errors.New("timeout"))

	log.Warn("fetch failed")

	entry := decode(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "fetch failed", entry["message"])
	assert.Equal(t, "collector", entry["module"])
	assert.Equal(t, "600000", entry["instrument_code"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, "timeout", entry["error"])
}

func TestNewWithWriterFiltersLevel(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.WithField("strategy", "macd_cross").Errorf("scan failed: %d", 3)
	entry := decode(t, &buf)
	assert.Equal(t, "scan failed: 3", entry["message"])
	assert.Equal(t, "macd_cross", entry["strategy"])
}

func TestWithRun(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	NewWithWriter(&buf, "info").
		WithRun("run-1", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)).
		Info("Starting scan")

	entry := decode(t, &buf)
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "2024-03-15", entry["scan_date"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Info("discarded")
	})
}
