package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"apod-feed/internal/observability/logging"
	"apod-feed/internal/usecase/feed"
)

// Triggers of a refresh run.
const (
	TriggerStartup  = "startup"
	TriggerCron     = "cron"
	TriggerSettings = "settings"
)

// Run statuses.
const (
	StatusSuccess   = "success"
	StatusExhausted = "exhausted"
	StatusFailure   = "failure"
	StatusSkipped   = "skipped"
)

// Refresher lists the configured entries and warms the cache.
type Refresher interface {
	Refresh(ctx context.Context, withImages bool) (*feed.RefreshStats, error)
}

// RunReport describes one refresh run.
type RunReport struct {
	RunID         string        `json:"run_id"`
	Trigger       string        `json:"trigger"`
	Status        string        `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	Entries       int           `json:"entries"`
	ImagesCached  int           `json:"images_cached"`
	ImagesMissing int           `json:"images_missing"`
	ImageFailures int           `json:"image_failures"`
	Error         string        `json:"error,omitempty"`
}

// Job runs refreshes one at a time. A trigger that arrives while a run is in
// progress is dropped.
type Job struct {
	refresher Refresher
	config    *WorkerConfig
	metrics   *WorkerMetrics
	health    *HealthServer
	logger    *slog.Logger

	running sync.Mutex
}

// NewJob creates a job. metrics and health may be nil.
func NewJob(refresher Refresher, cfg *WorkerConfig, metrics *WorkerMetrics, health *HealthServer, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		refresher: refresher,
		config:    cfg,
		metrics:   metrics,
		health:    health,
		logger:    logger,
	}
}

// Run performs one refresh bounded by RefreshTimeout.
func (j *Job) Run(ctx context.Context, trigger string) RunReport {
	report := RunReport{
		RunID:     logging.NewRunID(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}

	if !j.running.TryLock() {
		report.Status = StatusSkipped
		j.logger.Info("refresh already running, trigger dropped", slog.String("trigger", trigger))
		return report
	}
	defer j.running.Unlock()

	runLogger := logging.WithFields(j.logger, map[string]interface{}{"trigger": trigger})
	ctx = logging.ContextWithRunID(ctx, report.RunID)
	ctx = logging.WithLogger(ctx, runLogger)
	logger := logging.WithRunID(ctx, runLogger)

	ctx, cancel := context.WithTimeout(ctx, j.config.RefreshTimeout)
	defer cancel()

	logger.Info("refresh started")

	stats, err := j.refresher.Refresh(ctx, j.config.PrefetchImages)
	report.Duration = time.Since(report.StartedAt)

	switch {
	case err != nil:
		report.Status = StatusFailure
		report.Error = err.Error()
		if stats != nil {
			fillReport(&report, stats)
		}
		logger.Error("refresh failed", slog.Any("error", err), slog.Duration("duration", report.Duration))
	case stats.HistoryReached:
		report.Status = StatusExhausted
		fillReport(&report, stats)
		logger.Warn("refresh reached the first published date", slog.Int("entries", stats.Entries))
	default:
		report.Status = StatusSuccess
		fillReport(&report, stats)
		logger.Info("refresh completed",
			slog.Int("entries", stats.Entries),
			slog.Int("images_cached", stats.ImagesCached),
			slog.Int("images_missing", stats.ImagesMissing),
			slog.Int("image_failures", stats.ImageFailures),
			slog.Duration("duration", report.Duration))
	}

	j.record(report)
	return report
}

func fillReport(report *RunReport, stats *feed.RefreshStats) {
	report.Entries = stats.Entries
	report.ImagesCached = stats.ImagesCached
	report.ImagesMissing = stats.ImagesMissing
	report.ImageFailures = stats.ImageFailures
}

func (j *Job) record(report RunReport) {
	if j.health != nil {
		j.health.RecordRun(report)
	}
	if j.metrics == nil {
		return
	}
	j.metrics.RecordRun(report.Status, report.Trigger, report.Duration.Seconds())
	j.metrics.RecordEntries(report.Entries)
	j.metrics.RecordImages(report.ImagesCached, report.ImagesMissing, report.ImageFailures)
	if report.Status != StatusFailure {
		j.metrics.RecordLastSuccess()
	}
}
