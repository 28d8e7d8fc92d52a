package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"info", logrus.InfoLevel},
		{"bogus", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			InitWithOutput(tt.level, "json", &bytes.Buffer{})
			assert.Equal(t, tt.expected, Log.GetLevel())
		})
	}
}

func TestWithRequestJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("info", "json", &buf)

	WithRequest("req-1", "/api/analyze").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "/api/analyze", line["endpoint"])
	assert.Equal(t, "hello", line["msg"])
}
