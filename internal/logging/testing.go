package logging

import (
	"log/slog"
	"os"
)

// NewTestLogger creates a quiet logger for tests. Set TEST_DEBUG to get
// debug output.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("TEST_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
