package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Log is the process-wide logger. Packages log through it directly; main
// swaps it for a configured one via Initialize.
var Log = newLogger("info", false)

// Initialize replaces the global logger and makes it the slog default.
func Initialize(level string, useJSON bool) {
	Log = newLogger(level, useJSON)
	slog.SetDefault(Log)
}

func newLogger(level string, useJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}
	if useJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
