package fetcher_test

import (
	"testing"
	"time"

	"apod-feed/internal/infra/fetcher"

	"github.com/stretchr/testify/assert"
)

// ───────────────────────────────────────────────────────────────
// Configuration
// ───────────────────────────────────────────────────────────────

func TestDefaultConfig(t *testing.T) {
	cfg := fetcher.DefaultConfig()

	assert.Equal(t, "https://apod.nasa.gov/apod/", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, int64(4*1024*1024), cfg.MaxBodySize)
	assert.Equal(t, 2.0, cfg.RequestsPerSecond)
	assert.False(t, cfg.Lenient)
	assert.Equal(t, "apod-page-fetch", cfg.Breaker.Name)
	assert.NoError(t, cfg.Validate())
}

func TestImageConfig(t *testing.T) {
	cfg := fetcher.ImageConfig()

	assert.Equal(t, int64(64*1024*1024), cfg.MaxBodySize)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, "apod-image-fetch", cfg.Breaker.Name)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fetcher.Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*fetcher.Config) {}},
		{name: "http mirror", mutate: func(c *fetcher.Config) { c.BaseURL = "http://127.0.0.1:8080/apod/" }},
		{name: "base without trailing slash", mutate: func(c *fetcher.Config) { c.BaseURL = "https://apod.nasa.gov/apod" }, wantErr: true},
		{name: "ftp base", mutate: func(c *fetcher.Config) { c.BaseURL = "ftp://apod.nasa.gov/apod/" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *fetcher.Config) { c.Timeout = 0 }, wantErr: true},
		{name: "tiny body limit", mutate: func(c *fetcher.Config) { c.MaxBodySize = 10 }, wantErr: true},
		{name: "too many redirects", mutate: func(c *fetcher.Config) { c.MaxRedirects = 11 }, wantErr: true},
		{name: "zero rate", mutate: func(c *fetcher.Config) { c.RequestsPerSecond = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestLoadConfigFromEnv_CustomValues(t *testing.T) {
	t.Setenv("APOD_BASE_URL", "http://mirror.example/apod/")
	t.Setenv("APOD_FETCH_TIMEOUT", "3s")
	t.Setenv("APOD_MAX_PAGE_BYTES", "2048")
	t.Setenv("APOD_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("APOD_LENIENT_HTTP_ERRORS", "true")

	cfg := fetcher.LoadConfigFromEnv(nil, nil)

	assert.Equal(t, "http://mirror.example/apod/", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, int64(2048), cfg.MaxBodySize)
	assert.Equal(t, 0.5, cfg.RequestsPerSecond)
	assert.True(t, cfg.Lenient)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("APOD_BASE_URL", "https://apod.nasa.gov/apod")
	t.Setenv("APOD_FETCH_TIMEOUT", "-1s")
	t.Setenv("APOD_MAX_PAGE_BYTES", "lots")
	t.Setenv("APOD_REQUESTS_PER_SECOND", "0")
	t.Setenv("APOD_LENIENT_HTTP_ERRORS", "maybe")

	cfg := fetcher.LoadConfigFromEnv(nil, nil)

	assert.Equal(t, fetcher.DefaultConfig().BaseURL, cfg.BaseURL)
	assert.Equal(t, fetcher.DefaultConfig().Timeout, cfg.Timeout)
	assert.Equal(t, fetcher.DefaultConfig().MaxBodySize, cfg.MaxBodySize)
	assert.Equal(t, fetcher.DefaultConfig().RequestsPerSecond, cfg.RequestsPerSecond)
	assert.False(t, cfg.Lenient)
	assert.NoError(t, cfg.Validate())
}

func TestLoadImageConfigFromEnv(t *testing.T) {
	t.Setenv("APOD_MAX_PAGE_BYTES", "2048")
	t.Setenv("APOD_MAX_IMAGE_BYTES", "1048576")
	t.Setenv("APOD_IMAGE_FETCH_TIMEOUT", "90s")

	cfg := fetcher.LoadImageConfigFromEnv(nil, nil)

	assert.Equal(t, int64(1048576), cfg.MaxBodySize, "page limit does not apply to images")
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, "apod-image-fetch", cfg.Breaker.Name)
}
