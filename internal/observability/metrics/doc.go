// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Remote fetch metrics (outcome, duration)
//   - Cache metrics (hits, misses, bytes written)
//   - Assembly metrics (skipped dates, entries, duration)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the worker's /metrics endpoint.
//
// Example usage:
//
//	import "apod-feed/internal/observability/metrics"
//
//	start := time.Now()
//	body, err := fetcher.Fetch(ctx, url)
//	if err == nil {
//	    metrics.RecordPageFetch(metrics.FetchOutcomeSuccess, time.Since(start))
//	}
package metrics
