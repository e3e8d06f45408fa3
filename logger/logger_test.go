package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogrusLogger("debug", FormatJSON, &buf)

	log.WithField("run_id", "abc").Info(context.Background(), "navigating to target", map[string]interface{}{
		"url": "http://localhost:5173/admin",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "navigating to target", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "http://localhost:5173/admin", entry["url"])
}

func TestLogrusLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogrusLogger("info", FormatText, &buf)

	log.Info(context.Background(), "screenshot saved", map[string]interface{}{"path": "admin.png"})

	assert.Contains(t, buf.String(), "screenshot saved")
	assert.Contains(t, buf.String(), "path=admin.png")
}

func TestLogrusLogger_Level(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
	}{
		{"debug level logs debug", "debug", true},
		{"info level drops debug", "info", false},
		{"invalid level falls back to info", "loud", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewLogrusLogger(tt.level, FormatText, &buf)
			log.Debug(context.Background(), "page markup", nil)
			assert.Equal(t, tt.wantDebug, buf.Len() > 0)
		})
	}
}

func TestTestLogger_DerivedLoggersShareCapture(t *testing.T) {
	log := NewTestLogger()
	child := log.WithField("run_id", "r1").WithFields(map[string]interface{}{"step": "session"})

	child.Warn(context.Background(), "token expired", map[string]interface{}{"exp": 1})
	log.Info(context.Background(), "run started", nil)

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0].Level)
	assert.Equal(t, "r1", entries[0].Fields["run_id"])
	assert.Equal(t, "session", entries[0].Fields["step"])
	assert.Equal(t, 1, entries[0].Fields["exp"])
	assert.NotContains(t, entries[1].Fields, "run_id")

	assert.Equal(t, []string{"token expired"}, log.Messages("warn"))
	assert.True(t, log.Contains("run started"))

	log.Reset()
	assert.Empty(t, child.(*TestLogger).Entries())
}
