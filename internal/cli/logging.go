package cli

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// newLogger builds the diagnostics logger. JSON output gets JSON logs so a
// pipeline can parse both streams.
func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// newRunID returns a time-ordered UUIDv7 so log lines from successive
// invocations sort by start time.
func newRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
