package logger

import (
	"io"
	"log/slog"
	"os"
)

// EnvTestLevel enables log output in tests, e.g. AUDIOLAB_TEST_LOG=debug.
const EnvTestLevel = "AUDIOLAB_TEST_LOG"

// NewTestLogger returns a logger for tests. It discards everything unless
// AUDIOLAB_TEST_LOG names a level, so frame and audio goroutines stay quiet.
func NewTestLogger() *slog.Logger {
	level, ok := ParseLevel(os.Getenv(EnvTestLevel))
	if !ok {
		return NewLogger(Config{Level: slog.LevelError, Output: io.Discard})
	}
	return NewLogger(Config{Level: level, Format: "text", Output: os.Stderr})
}
