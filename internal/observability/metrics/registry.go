// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch metrics track page and image downloads
var (
	// PageFetchesTotal counts remote fetches by outcome
	PageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apod_page_fetches_total",
			Help: "Total number of remote fetches by outcome",
		},
		[]string{"outcome"}, // outcome: success, not_found, failure
	)

	// PageFetchDuration measures the duration of a single remote fetch
	PageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "apod_page_fetch_duration_seconds",
			Help:    "Duration of a single remote fetch in seconds",
			Buckets: []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)
)

// Cache metrics track the local file cache
var (
	// CacheLookupsTotal counts cache lookups by result
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apod_cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"result"}, // result: hit, miss
	)

	// CacheBytesWrittenTotal counts bytes written into the cache directory
	CacheBytesWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apod_cache_bytes_written_total",
			Help: "Total number of bytes written into the cache",
		},
	)
)

// Assembly metrics track the feed date walk
var (
	// DatesSkippedTotal counts walked dates that produced no entry
	DatesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apod_dates_skipped_total",
			Help: "Total number of dates skipped during assembly",
		},
		[]string{"reason"}, // reason: absent, malformed, network_failure, thumbnail_missing
	)

	// EntriesAssembledTotal counts entries returned to callers
	EntriesAssembledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apod_entries_assembled_total",
			Help: "Total number of entries assembled",
		},
	)

	// AssembleDuration measures the duration of a full assembly
	AssembleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apod_assemble_duration_seconds",
			Help:    "Time taken to assemble a list of entries",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"status"}, // status: success, exhausted, failure
	)
)
