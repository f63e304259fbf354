package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a stdout text logger at the named level.
func New(level string) *slog.Logger {
	return NewWriter(os.Stdout, level)
}

// NewWriter creates a text logger on w. Unknown levels fall back to info.
func NewWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With("app", "eventsdigest")
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
