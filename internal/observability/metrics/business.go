package metrics

import (
	"time"
)

// Fetch outcome labels.
const (
	FetchOutcomeSuccess  = "success"
	FetchOutcomeNotFound = "not_found"
	FetchOutcomeFailure  = "failure"
)

// RecordPageFetch records the outcome and duration of one remote fetch.
// Outcome should be one of FetchOutcomeSuccess, FetchOutcomeNotFound or FetchOutcomeFailure.
func RecordPageFetch(outcome string, duration time.Duration) {
	PageFetchesTotal.WithLabelValues(outcome).Inc()
	PageFetchDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records whether a cache lookup was served from disk.
func RecordCacheLookup(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordCacheWrite records the size of a file written into the cache.
func RecordCacheWrite(size int64) {
	if size > 0 {
		CacheBytesWrittenTotal.Add(float64(size))
	}
}

// RecordDateSkipped records a date that did not produce an entry.
func RecordDateSkipped(reason string) {
	DatesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordAssemble records a finished assembly.
//
// Parameters:
//   - status: "success", "exhausted" or "failure"
//   - entries: number of entries returned to the caller
//   - duration: wall time spent walking dates
func RecordAssemble(status string, entries int, duration time.Duration) {
	AssembleDuration.WithLabelValues(status).Observe(duration.Seconds())
	if entries > 0 {
		EntriesAssembledTotal.Add(float64(entries))
	}
}
