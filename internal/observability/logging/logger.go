// Package logging provides structured logging utilities using the standard library's log/slog package.
// It offers helper functions for creating loggers with consistent configuration and context propagation.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// NewLogger creates a new structured logger with JSON output.
// The log level can be controlled via the LOG_LEVEL environment variable.
// Supported levels: debug, info, warn, error
// Default level: info
func NewLogger() *slog.Logger {
	logLevel := levelFromEnv()

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
		// Add source code location for error and warn levels
		AddSource: logLevel <= slog.LevelWarn,
	})

	return slog.New(handler)
}

// NewTextLoggerTo creates a human-readable text logger writing to w, at the level
// given by LOG_LEVEL.
func NewTextLoggerTo(w io.Writer) *slog.Logger {
	return NewTextLoggerWithLevel(w, levelFromEnv())
}

// NewTextLoggerWithLevel creates a text logger writing to w at a fixed level,
// ignoring LOG_LEVEL.
func NewTextLoggerWithLevel(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler)
}

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewRunID returns a fresh identifier for one assembly or refresh run.
func NewRunID() string {
	return uuid.NewString()
}

// ContextWithRunID stores a run ID in the context.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDContextKey, runID)
}

// RunIDFromContext returns the run ID stored in ctx, or "" if none.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDContextKey).(string); ok {
		return id
	}
	return ""
}

// WithRunID returns a new logger that includes the run ID from the context.
// This correlates every log line of a single refresh.
func WithRunID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	runID := RunIDFromContext(ctx)
	if runID == "" {
		return logger
	}
	return logger.With("run_id", runID)
}

// WithFields returns a new logger with additional structured fields.
// Fields are provided as key-value pairs.
func WithFields(logger *slog.Logger, fields map[string]interface{}) *slog.Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
// This enables passing loggers through the application via context.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const (
	loggerContextKey contextKey = "logger"
	runIDContextKey  contextKey = "run_id"
)
