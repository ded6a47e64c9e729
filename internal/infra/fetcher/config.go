package fetcher

import (
	"fmt"
	"log/slog"
	"time"

	"apod-feed/internal/pkg/config"
	"apod-feed/internal/resilience/circuitbreaker"
	"apod-feed/internal/usecase/feed"
)

// Config holds configuration for one HTTPFetcher.
// Pages and full-size images use separate fetchers so each gets its own body limit
// and circuit breaker.
type Config struct {
	// BaseURL is the archive root that page and thumbnail names are appended to.
	// Must end with "/".
	BaseURL string

	// Timeout bounds a single request including the body read.
	Timeout time.Duration

	// MaxBodySize is the largest accepted response body in bytes.
	MaxBodySize int64

	// MaxRedirects is the longest redirect chain followed.
	MaxRedirects int

	// RequestsPerSecond limits the request rate towards the archive (burst 1).
	RequestsPerSecond float64

	// Lenient maps every HTTP status error to feed.ErrNotFound, so that a server
	// error hides one date instead of failing the walk. Transport errors still fail.
	Lenient bool

	// DenyPrivateIPs rejects hosts that resolve to loopback, private or link-local addresses.
	DenyPrivateIPs bool

	// UserAgent is sent with every request.
	UserAgent string

	// Breaker configures the circuit breaker wrapped around every request.
	Breaker circuitbreaker.Config
}

const (
	defaultPageBodySize  = 4 * 1024 * 1024  // 4MB
	defaultImageBodySize = 64 * 1024 * 1024 // 64MB
	minBodySize          = 1024
	maxBodySize          = 512 * 1024 * 1024
)

// DefaultConfig returns the configuration for daily pages and thumbnails.
func DefaultConfig() Config {
	return Config{
		BaseURL:           feed.DefaultBaseURL,
		Timeout:           10 * time.Second,
		MaxBodySize:       defaultPageBodySize,
		MaxRedirects:      5,
		RequestsPerSecond: 2,
		Lenient:           false,
		DenyPrivateIPs:    false,
		UserAgent:         "apod-feed/1.0 (+https://apod.nasa.gov/apod/)",
		Breaker:           circuitbreaker.PageFetchConfig(),
	}
}

// ImageConfig returns the configuration for full-size image downloads.
func ImageConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 60 * time.Second
	cfg.MaxBodySize = defaultImageBodySize
	cfg.Breaker = circuitbreaker.ImageFetchConfig()
	return cfg
}

// Validate checks that the configuration can serve requests.
func (c *Config) Validate() error {
	if err := config.ValidateHTTPURL(c.BaseURL); err != nil {
		return fmt.Errorf("base URL: %w", err)
	}
	if c.BaseURL[len(c.BaseURL)-1] != '/' {
		return fmt.Errorf("base URL must end with '/', got %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive, got %v", c.RequestsPerSecond)
	}

	return nil
}

// LoadConfigFromEnv loads the page fetcher configuration.
//
// Environment variables:
//   - APOD_BASE_URL: archive root (default https://apod.nasa.gov/apod/)
//   - APOD_FETCH_TIMEOUT: per-request timeout (default 10s)
//   - APOD_MAX_PAGE_BYTES: body limit (default 4MB)
//   - APOD_REQUESTS_PER_SECOND: request rate (default 2)
//   - APOD_LENIENT_HTTP_ERRORS: treat every HTTP error as a missing page (default false)
//   - APOD_DENY_PRIVATE_IPS: reject private hosts (default false)
//
// Invalid values fall back to defaults with a warning. The result is always valid.
func LoadConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) Config {
	return loadFromEnv(DefaultConfig(), "APOD_MAX_PAGE_BYTES", logger, metrics)
}

// LoadImageConfigFromEnv loads the image fetcher configuration. It shares every
// variable with LoadConfigFromEnv except the body limit, read from APOD_MAX_IMAGE_BYTES
// (default 64MB), and the timeout, read from APOD_IMAGE_FETCH_TIMEOUT (default 60s).
func LoadImageConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) Config {
	cfg := loadFromEnv(ImageConfig(), "APOD_MAX_IMAGE_BYTES", logger, metrics)
	result := config.LoadEnvDuration("APOD_IMAGE_FETCH_TIMEOUT", ImageConfig().Timeout, config.ValidatePositiveDuration)
	report(logger, metrics, "image_fetch_timeout", result)
	cfg.Timeout = result.Value.(time.Duration)
	return cfg
}

func loadFromEnv(cfg Config, bodyKey string, logger *slog.Logger, metrics *config.ConfigMetrics) Config {
	if logger == nil {
		logger = slog.Default()
	}

	baseResult := config.LoadEnvWithFallback("APOD_BASE_URL", cfg.BaseURL, func(v string) error {
		if err := config.ValidateHTTPURL(v); err != nil {
			return err
		}
		if v[len(v)-1] != '/' {
			return fmt.Errorf("base URL must end with '/'")
		}
		return nil
	})
	report(logger, metrics, "base_url", baseResult)
	cfg.BaseURL = baseResult.Value.(string)

	timeoutResult := config.LoadEnvDuration("APOD_FETCH_TIMEOUT", cfg.Timeout, config.ValidatePositiveDuration)
	report(logger, metrics, "fetch_timeout", timeoutResult)
	cfg.Timeout = timeoutResult.Value.(time.Duration)

	bodyResult := config.LoadEnvInt64(bodyKey, cfg.MaxBodySize, func(v int64) error {
		if v < minBodySize || v > maxBodySize {
			return fmt.Errorf("must be between %d and %d bytes", minBodySize, maxBodySize)
		}
		return nil
	})
	report(logger, metrics, "max_body_size", bodyResult)
	cfg.MaxBodySize = bodyResult.Value.(int64)

	rateResult := config.LoadEnvFloat("APOD_REQUESTS_PER_SECOND", cfg.RequestsPerSecond, config.ValidatePositiveFloat)
	report(logger, metrics, "requests_per_second", rateResult)
	cfg.RequestsPerSecond = rateResult.Value.(float64)

	lenientResult := config.LoadEnvBool("APOD_LENIENT_HTTP_ERRORS", cfg.Lenient)
	report(logger, metrics, "lenient_http_errors", lenientResult)
	cfg.Lenient = lenientResult.Value.(bool)

	denyResult := config.LoadEnvBool("APOD_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)
	report(logger, metrics, "deny_private_ips", denyResult)
	cfg.DenyPrivateIPs = denyResult.Value.(bool)

	return cfg
}

func report(logger *slog.Logger, metrics *config.ConfigMetrics, field string, result config.ConfigLoadResult) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, warning := range result.Warnings {
		logger.Warn("fetcher configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}
	metrics.Observe(field, result)
}
