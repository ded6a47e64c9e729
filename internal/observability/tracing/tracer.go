package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans created by this module.
const InstrumentationName = "apod-feed"

// GetTracer returns the tracer for creating spans.
// The tracer is resolved from the global provider on every call, so a provider
// installed after package initialization (as tests do) is honored.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "feed.Probe")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
