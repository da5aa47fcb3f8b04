package lib_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytdlstem/ytdlstem/internal/lib"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]lib.LogLevel{
		"debug":   lib.LogLevelDebug,
		"TRACE":   lib.LogLevelDebug,
		"info":    lib.LogLevelInfo,
		"warning": lib.LogLevelWarn,
		"error":   lib.LogLevelError,
		"off":     lib.LogLevelOff,
		"bogus":   lib.LogLevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, lib.ParseLogLevel(in), in)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := lib.NewLoggerWithWriter(lib.LogLevelWarn, &buf, false)

	logger.Info("hidden")
	logger.Warn("shown", "job_id", "j1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "job_id=j1")
	assert.False(t, logger.IsDebug())

	logger.SetLevel(lib.LogLevelDebug)
	assert.True(t, logger.IsDebug())
}

func TestLogger_JSONFormatAndNaming(t *testing.T) {
	var buf bytes.Buffer
	logger := lib.NewLoggerWithWriter(lib.LogLevelDebug, &buf, true).Named("stems").With("session", "s1")

	lib.LogJobSubmitted(logger, "stems", "j1", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "Job submitted", entry["@message"])
	assert.Equal(t, "ytdlstem.stems", entry["@module"])
	assert.Equal(t, "s1", entry["session"])
	assert.Equal(t, "j1", entry["job_id"])
	assert.Equal(t, float64(3), entry["queue_position"])
}

func TestLogJobFinished_ErrorIsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := lib.NewLoggerWithWriter(lib.LogLevelWarn, &buf, false)

	lib.LogJobFinished(logger, "karaoke", "k1", "done", "")
	assert.Empty(t, buf.String())

	lib.LogJobFinished(logger, "karaoke", "k1", "error", "model crashed")
	assert.Contains(t, buf.String(), "Job failed")
	assert.Contains(t, buf.String(), "model crashed")
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := lib.NewLoggerWithWriter(lib.LogLevelDebug, &buf, false)

	assert.NoError(t, lib.LogOperation(logger, "fetch formats", func() error { return nil }))
	assert.Contains(t, buf.String(), "Completed: fetch formats")

	boom := errors.New("boom")
	assert.Same(t, boom, lib.LogOperation(logger, "submit", func() error { return boom }))
	assert.Contains(t, buf.String(), "Failed: submit")
}

func TestLogRetry_StripsLineBreaks(t *testing.T) {
	var buf bytes.Buffer
	logger := lib.NewLoggerWithWriter(lib.LogLevelWarn, &buf, false)

	lib.LogRetry(logger, "GET /x\nforged", 0, 3, errors.New("timeout"))
	assert.Contains(t, buf.String(), "Retry attempt 1/3 for: GET /xforged")
}

func TestNullLogger(t *testing.T) {
	logger := lib.NewNullLogger()
	logger.Error("nothing happens")
	assert.NotNil(t, logger.Hclog())
}
