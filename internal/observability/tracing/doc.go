// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created for the feed date walk, each date probe, cache materialization
// and every outgoing HTTP request. Without an installed TracerProvider the global
// no-op provider is used and tracing costs nothing.
//
// Example usage:
//
//	import "apod-feed/internal/observability/tracing"
//
//	client := &http.Client{Transport: tracing.NewTransport(nil)}
//
//	func probe(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "feed.Probe")
//	    defer span.End()
//	}
package tracing
