// Package config assembles the process-level configuration shared by the CLI and the worker.
package config

import (
	"fmt"
	"time"

	"apod-feed/internal/domain/entity"
	"apod-feed/internal/infra/cache"
	"apod-feed/internal/infra/settings"
	pkgconfig "apod-feed/internal/pkg/config"
	"apod-feed/internal/usecase/feed"
)

// FeedConfig holds the walk policy and the local paths.
type FeedConfig struct {
	// Parallelism is the number of dates probed at once. Default: 1 (sequential)
	Parallelism int

	// SkipMalformed skips dates whose page does not parse. Default: true
	SkipMalformed bool

	// SkipNetworkFailures skips dates that could not be fetched. Default: false
	SkipNetworkFailures bool

	// MemoSize bounds the in-process memo of parsed pages. Default: 256
	MemoSize int

	// Timezone decides which date is "today". Default: "America/New_York"
	Timezone string

	// Inception is the oldest date walked. Default: 1995-06-16
	Inception time.Time

	// CacheDir holds thumbnails and images. Default: $XDG_CACHE_HOME/apod
	CacheDir string

	// SettingsPath is the INI settings file. Default: $XDG_CONFIG_HOME/apod/apod.cfg
	SettingsPath string
}

// LoadFeedConfig reads the configuration from the environment. Unparseable values
// keep their defaults; the result is validated.
//
// Environment variables:
//   - APOD_PARALLELISM, APOD_SKIP_MALFORMED, APOD_SKIP_NETWORK_FAILURES, APOD_MEMO_SIZE
//   - APOD_TIMEZONE, APOD_INCEPTION (YYYY-MM-DD)
//   - APOD_CACHE_DIR, APOD_SETTINGS_PATH
func LoadFeedConfig() (*FeedConfig, error) {
	defaults := feed.DefaultOptions()
	cfg := &FeedConfig{
		Parallelism:         pkgconfig.LoadEnvInt("APOD_PARALLELISM", defaults.Parallelism, nil).Value.(int),
		SkipMalformed:       pkgconfig.LoadEnvBool("APOD_SKIP_MALFORMED", defaults.SkipMalformed).Value.(bool),
		SkipNetworkFailures: pkgconfig.LoadEnvBool("APOD_SKIP_NETWORK_FAILURES", defaults.SkipNetworkFailures).Value.(bool),
		MemoSize:            pkgconfig.LoadEnvInt("APOD_MEMO_SIZE", defaults.MemoSize, nil).Value.(int),
		Timezone:            pkgconfig.LoadEnvString("APOD_TIMEZONE", "America/New_York"),
		Inception:           entity.Inception,
		CacheDir:            cache.DefaultRoot(),
		SettingsPath:        settings.DefaultPath(),
	}
	if raw := pkgconfig.LoadEnvString("APOD_INCEPTION", ""); raw != "" {
		if d, err := entity.ParseDate(raw); err == nil {
			cfg.Inception = d
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and the time zone.
func (c *FeedConfig) Validate() error {
	if c.Parallelism < 1 || c.Parallelism > 16 {
		return fmt.Errorf("APOD_PARALLELISM must be between 1 and 16")
	}
	if c.MemoSize < 0 {
		return fmt.Errorf("APOD_MEMO_SIZE must not be negative")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APOD_TIMEZONE: %w", err)
	}
	if c.Inception.IsZero() {
		return fmt.Errorf("APOD_INCEPTION cannot be empty")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache directory cannot be empty")
	}
	if c.SettingsPath == "" {
		return fmt.Errorf("settings path cannot be empty")
	}
	return nil
}

// Options converts the configuration into walk options against baseURL.
func (c *FeedConfig) Options(baseURL string) feed.Options {
	opts := feed.DefaultOptions()
	opts.BaseURL = baseURL
	opts.Parallelism = c.Parallelism
	opts.SkipMalformed = c.SkipMalformed
	opts.SkipNetworkFailures = c.SkipNetworkFailures
	opts.MemoSize = c.MemoSize
	opts.Inception = c.Inception
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		opts.Location = loc
	}
	return opts
}
