package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "atlas", func(context.Context) string { return "abc123" })

	log.Info(context.Background(), "height updated", "height", 42)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "INFO", rec["level"])
	require.Equal(t, "height updated", rec["msg"])
	require.Equal(t, "atlas", rec["service"])
	require.Equal(t, "abc123", rec["trace_id"])
	require.EqualValues(t, 42, rec["height"])
	require.True(t, strings.HasPrefix(rec["file"].(string), "logger/logger_test.go:"))
}

func TestLoggerRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "atlas", nil)

	log.Debug(context.Background(), "dropped")
	log.Info(context.Background(), "dropped")
	require.Zero(t, buf.Len())

	log.Error(context.Background(), "kept")
	require.Contains(t, buf.String(), `"msg":"kept"`)
	require.NotContains(t, buf.String(), "trace_id")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug": LevelDebug,
		"info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
		"":      LevelInfo,
		"loud":  LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), in)
	}
}
