// Package logger_test contains tests for the logger package
package logger_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/scry-review/internal/config"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRespectsLevel(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	testCases := []struct {
		level      string
		debugShown bool
		infoShown  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{"warn", false, false},
		{"error", false, false},
		{"nonsense", false, true}, // falls back to info
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &logger.TestLogBuffer{}
			l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tc.level}, buf)
			require.NoError(t, err)
			require.NotNil(t, l)

			l.Debug("debug message")
			l.Info("info message")

			assert.Equal(t, tc.debugShown, strings.Contains(buf.String(), "debug message"))
			assert.Equal(t, tc.infoShown, strings.Contains(buf.String(), "info message"))
			assert.Same(t, l, slog.Default(), "Setup should install the logger as default")
		})
	}
}

func TestSetupWritesJSON(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "info"}, buf)
	require.NoError(t, err)

	l.Info("session started", slog.String("session_id", "abc"))

	logger.AssertLogField(t, buf, "msg", "session started")
	logger.AssertLogField(t, buf, "session_id", "abc")
	logger.AssertLogField(t, buf, "level", "INFO")
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	_, l := logger.NewTestLogger(t)
	_, fallback := logger.NewTestLogger(t)

	ctx := logger.WithLogger(context.Background(), l)
	assert.Same(t, l, logger.FromContext(ctx))
	assert.Same(t, l, logger.FromContextOrDefault(ctx, fallback))

	empty := context.Background()
	assert.Same(t, fallback, logger.FromContextOrDefault(empty, fallback))
	assert.NotNil(t, logger.FromContextOrDefault(empty, nil))
	assert.NotNil(t, logger.FromContext(empty))

	// nil loggers are ignored
	assert.Equal(t, empty, logger.WithLogger(empty, nil))
}

func TestNewLogCaptureContext(t *testing.T) {
	t.Parallel()

	ctx, buf := logger.NewLogCaptureContext(t)
	logger.FromContext(ctx).Debug("captured", slog.Int("n", 3))

	logger.AssertLogContains(t, buf, "captured")
	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(3), entries[0]["n"])
}
