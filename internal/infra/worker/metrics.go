package worker

import (
	"apod-feed/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the refresh worker.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp
//   - worker_config_validation_errors_total
//   - worker_config_fallbacks_total
//   - worker_config_fallback_active
//
// Worker-specific metrics:
//   - worker_refresh_runs_total{status,trigger}: status is success, exhausted or failure;
//     trigger is cron, settings or startup
//   - worker_refresh_duration_seconds
//   - worker_refresh_entries_total: entries listed across runs
//   - worker_refresh_images_total{result}: cached, missing or failed
//   - worker_refresh_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	RefreshRunsTotal            *prometheus.CounterVec
	RefreshDurationSeconds      prometheus.Histogram
	RefreshEntriesTotal         prometheus.Counter
	RefreshImagesTotal          *prometheus.CounterVec
	RefreshLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with the default registry.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the worker metrics with reg.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		RefreshRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_refresh_runs_total",
			Help: "Total number of refresh runs by status and trigger",
		}, []string{"status", "trigger"}),

		RefreshDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_refresh_duration_seconds",
			Help:    "Duration of refresh runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 600}, // 1s to 10m
		}),

		RefreshEntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_refresh_entries_total",
			Help: "Total number of entries listed across refresh runs",
		}),

		RefreshImagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_refresh_images_total",
			Help: "Total number of full-size image prefetches by result",
		}, []string{"result"}),

		RefreshLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_refresh_last_success_timestamp",
			Help: "Unix timestamp of the last successful refresh run",
		}),
	}
}

// RecordRun counts one finished run.
func (m *WorkerMetrics) RecordRun(status, trigger string, seconds float64) {
	m.RefreshRunsTotal.WithLabelValues(status, trigger).Inc()
	m.RefreshDurationSeconds.Observe(seconds)
}

// RecordEntries adds the number of entries listed by one run.
func (m *WorkerMetrics) RecordEntries(count int) {
	m.RefreshEntriesTotal.Add(float64(count))
}

// RecordImages adds the prefetch results of one run.
func (m *WorkerMetrics) RecordImages(cached, missing, failed int) {
	m.RefreshImagesTotal.WithLabelValues("cached").Add(float64(cached))
	m.RefreshImagesTotal.WithLabelValues("missing").Add(float64(missing))
	m.RefreshImagesTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordLastSuccess sets the last success timestamp to now.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.RefreshLastSuccessTimestamp.SetToCurrentTime()
}
