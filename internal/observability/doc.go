// Package observability provides production-grade observability infrastructure
// including structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracing for the date walk and remote fetches
//
// Example usage:
//
//	import (
//	    "apod-feed/internal/observability/logging"
//	    "apod-feed/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("worker started")
//
//	    metrics.RecordCacheLookup(true)
//	}
package observability
