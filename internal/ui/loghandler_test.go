package ui

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogHandlerFormatsRecords(t *testing.T) {
	lines := make(chan string, 10)
	logger := slog.New(NewLogHandler(lines, slog.LevelInfo))

	logger.Info("capture started", "device", "default")
	logger.Debug("not for the log pane")
	logger.With("session", "abc").WithGroup("conn").Warn("retrying", "attempt", 2)

	require.Len(t, lines, 2)

	line := <-lines
	require.Contains(t, line, "INFO")
	require.Contains(t, line, "capture started")
	require.Contains(t, line, "device=default")

	line = <-lines
	require.Contains(t, line, "WARN")
	require.Contains(t, line, "retrying")
	require.Contains(t, line, "session=abc")
	require.Contains(t, line, "conn.attempt=2")
}

func TestLogHandlerHonorsLevelVar(t *testing.T) {
	level := &slog.LevelVar{}
	level.Set(slog.LevelWarn)

	lines := make(chan string, 10)
	logger := slog.New(NewLogHandler(lines, level))

	logger.Info("suppressed")
	logger.Warn("kept")

	level.Set(slog.LevelDebug)
	logger.Debug("kept after lowering the level")

	require.Len(t, lines, 2)
	require.Contains(t, <-lines, "kept")
	require.Contains(t, <-lines, "kept after lowering the level")
}

func TestLogHandlerDropsLinesWhenPaneIsBehind(t *testing.T) {
	lines := make(chan string, 1)
	logger := slog.New(NewLogHandler(lines, slog.LevelInfo))

	logger.Info("first")
	logger.Info("second")

	require.Len(t, lines, 1)
	require.Contains(t, <-lines, "first")
}
