package worker

import (
	"fmt"
	"log/slog"
	"time"

	"apod-feed/internal/pkg/config"
)

// WorkerConfig holds the configuration of the refresh worker.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
type WorkerConfig struct {
	// CronSchedule is the refresh schedule, 5 fields.
	// Default: "15 0 * * *", shortly after the daily page goes up.
	CronSchedule string

	// Timezone is the IANA zone the schedule is evaluated in.
	// Default: "America/New_York", the publisher's zone.
	Timezone string

	// RefreshTimeout bounds one refresh run. Range: 1m-2h.
	RefreshTimeout time.Duration

	// PrefetchImages downloads the full-size image of every listed entry.
	PrefetchImages bool

	// HealthPort serves /health and /health/ready. Range: 1024-65535.
	HealthPort int

	// MetricsPort serves /metrics and /health/breakers. Range: 1024-65535.
	MetricsPort int
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:   "15 0 * * *",
		Timezone:       "America/New_York",
		RefreshTimeout: 10 * time.Minute,
		PrefetchImages: false,
		HealthPort:     9091,
		MetricsPort:    9090,
	}
}

// Validate checks every field and reports all failures together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RefreshTimeout, time.Minute, 2*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("refresh timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both %d", c.HealthPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// Location returns the schedule's time zone. Timezone is assumed valid.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration, falling back to the default for
// every invalid value. The result is always valid.
//
// Environment variables:
//   - CRON_SCHEDULE: cron expression (default "15 0 * * *")
//   - WORKER_TIMEZONE: IANA zone (default "America/New_York")
//   - REFRESH_TIMEOUT: duration 1m-2h (default 10m)
//   - PREFETCH_IMAGES: bool (default false)
//   - WORKER_HEALTH_PORT: 1024-65535 (default 9091)
//   - METRICS_PORT: 1024-65535 (default 9090)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		if metrics != nil {
			metrics.Observe(field, result)
		}
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	apply("cron_schedule", result)
	cfg.CronSchedule = result.Value.(string)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	apply("timezone", result)
	cfg.Timezone = result.Value.(string)

	result = config.LoadEnvDuration("REFRESH_TIMEOUT", cfg.RefreshTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 2*time.Hour)
	})
	apply("refresh_timeout", result)
	cfg.RefreshTimeout = result.Value.(time.Duration)

	result = config.LoadEnvBool("PREFETCH_IMAGES", cfg.PrefetchImages)
	apply("prefetch_images", result)
	cfg.PrefetchImages = result.Value.(bool)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	apply("health_port", result)
	cfg.HealthPort = result.Value.(int)

	result = config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, func(v int) error {
		if err := config.ValidateIntRange(v, 1024, 65535); err != nil {
			return err
		}
		if v == cfg.HealthPort {
			return fmt.Errorf("collides with health port %d", cfg.HealthPort)
		}
		return nil
	})
	apply("metrics_port", result)
	cfg.MetricsPort = result.Value.(int)

	if cfg.MetricsPort == cfg.HealthPort {
		// WORKER_HEALTH_PORT took the metrics default.
		cfg.MetricsPort = cfg.HealthPort + 1
		if cfg.MetricsPort > 65535 {
			cfg.MetricsPort = cfg.HealthPort - 1
		}
		fallbackApplied = true
		logger.Warn("Configuration fallback applied",
			slog.String("field", "metrics_port"),
			slog.Int("value", cfg.MetricsPort))
	}

	if metrics != nil {
		metrics.SetFallbackActive(fallbackApplied)
		metrics.RecordLoadTimestamp()
	}

	return &cfg
}
