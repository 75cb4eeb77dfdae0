package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moner050/ddal-kkak/backend/pkg/config"
)

func newTestLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &config.Config{Env: "test", LogLevel: level, LogFormat: "json"}
	return NewWithWriter(cfg, &buf), &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level     string
		wantLevel zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, _ := newTestLogger(tt.level)
			assert.Equal(t, tt.wantLevel, log.Level())
		})
	}
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"trace", zerolog.TraceLevel},
		{" Warn ", zerolog.WarnLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, levelOf(tt.input))
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	log, buf := newTestLogger("debug")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { log.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { log.Info("info message") }, "info message", "info"},
		{"warn", func() { log.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { log.Error("error message") }, "error message", "error"},
		{"infof", func() { log.Infof("pruned %d rows", 42) }, "pruned 42 rows", "info"},
		{"errorf", func() { log.Errorf("failed: %s", "timeout") }, "failed: timeout", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
			assert.Equal(t, ServiceName, entry["service"])
			assert.Equal(t, "test", entry["env"])
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newTestLogger("warn")

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Equal(t, "kept", decode(t, buf)["message"])
}

func TestWithFields(t *testing.T) {
	log, buf := newTestLogger("info")

	log.WithComponent("retention").
		WithField("cutoff", "2025-08-03").
		WithFields(map[string]interface{}{"deleted": 12}).
		Info("pruned")

	entry := decode(t, buf)
	assert.Equal(t, "retention", entry["component"])
	assert.Equal(t, "2025-08-03", entry["cutoff"])
	assert.Equal(t, float64(12), entry["deleted"])
}

func TestWithError(t *testing.T) {
	log, buf := newTestLogger("info")

	log.WithError(errors.New("database connection failed")).Error("operation failed")

	entry := decode(t, buf)
	assert.Equal(t, "database connection failed", entry["error"])
	assert.Equal(t, "operation failed", entry["message"])
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "test", LogLevel: "info", LogFormat: "console"}, &buf)

	log.Info("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestWithFields_ParentUnchanged(t *testing.T) {
	log, buf := newTestLogger("info")

	_ = log.WithComponent("api")
	log.Info("plain")

	_, tagged := decode(t, buf)["component"]
	assert.False(t, tagged)
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.Equal(t, zerolog.Disabled, log.Level())
	log.Error("nothing")
	log.WithField("k", "v").Info("nothing")
}
