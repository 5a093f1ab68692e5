package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dermquiz/pkg/config"
)

func TestNewConsoleLogger(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.NotNil(t, log.GetZerolog())
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "shouting"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dermquiz.log")

	log, err := New(&config.LoggingConfig{Level: "debug", File: path})
	require.NoError(t, err)

	log.Info("file logging works")
	log.WithField("label", "melanoma").Warn("bucket under-filled")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "file logging works")
	assert.Contains(t, content, "bucket under-filled")
	assert.Contains(t, content, `"label":"melanoma"`)
	assert.Contains(t, content, `"app":"dermquiz"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"INFO", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		level, err := parseLogLevel(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, level, tt.input)
	}

	_, err := parseLogLevel("nope")
	assert.Error(t, err)
}

func TestWithFieldsChaining(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chained.log")
	log, err := New(&config.LoggingConfig{Level: "debug", File: path})
	require.NoError(t, err)

	log.WithFields(map[string]interface{}{"module": "mel_vs_nevus"}).
		WithField("sets", 3).
		Info("module assembled")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `"module":"mel_vs_nevus"`)
	assert.Contains(t, content, `"sets":3`)
}

func TestWithError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error.log")
	log, err := New(&config.LoggingConfig{Level: "debug", File: path})
	require.NoError(t, err)

	log.WithError(errors.New("connection refused")).Warn("failed to save checkpoint")
	// A nil error attaches nothing and must not panic.
	log.WithError(nil).Info("all fine")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "connection refused")
}

func TestGetLoggerNeverNil(t *testing.T) {
	require.NotNil(t, GetLogger())
}

func TestTestLoggerCapture(t *testing.T) {
	log := NewTestLogger()

	log.Info("page processed")
	log.WarnWithFields("slow response", map[string]interface{}{"ms": 1200})
	log.WithError(errors.New("boom")).Error("fetch failed")

	messages := log.GetMessages()
	require.Len(t, messages, 3)

	assert.True(t, log.HasMessage("page processed"))
	assert.False(t, log.HasMessage("never logged"))
	assert.True(t, log.HasError())

	warns := log.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, 1200, warns[0].Fields["ms"])

	assert.True(t, strings.Contains(log.String(), "fetch failed"))

	log.Clear()
	assert.Empty(t, log.GetMessages())
	assert.False(t, log.HasError())
}

func TestTestLoggerWithFieldsMerge(t *testing.T) {
	log := NewTestLogger()

	log.WithField("label", "bowen").
		WithFields(map[string]interface{}{"have": 2}).
		InfoWithFields("progress", map[string]interface{}{"target": 15})

	messages := log.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "bowen", messages[0].Fields["label"])
	assert.Equal(t, 2, messages[0].Fields["have"])
	assert.Equal(t, 15, messages[0].Fields["target"])
}
