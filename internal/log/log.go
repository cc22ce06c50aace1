package log

import (
	"log/slog"
	"os"
)

// Setup configures the process-wide logger. Debug messages are only
// emitted when verbose is enabled.
func Setup(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// Debug logs a debug message with key-value pairs
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message with key-value pairs
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message with key-value pairs
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message with key-value pairs
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}
