// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON output for the worker, text output on stderr for the CLI
//   - Run ID propagation
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "apod-feed/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("worker started", slog.String("version", "1.0"))
//	}
//
//	func refresh(ctx context.Context) {
//	    ctx = logging.ContextWithRunID(ctx, logging.NewRunID())
//	    logger := logging.WithRunID(ctx, slog.Default())
//	    logger.Info("refresh started")
//	}
package logging
