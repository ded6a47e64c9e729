package config

import (
	"testing"
	"time"

	"apod-feed/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearFeedEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APOD_PARALLELISM",
		"APOD_SKIP_MALFORMED",
		"APOD_SKIP_NETWORK_FAILURES",
		"APOD_MEMO_SIZE",
		"APOD_TIMEZONE",
		"APOD_INCEPTION",
		"APOD_CACHE_DIR",
		"APOD_SETTINGS_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFeedConfig_Defaults(t *testing.T) {
	clearFeedEnvVars(t)

	config, err := LoadFeedConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, config.Parallelism)
	assert.True(t, config.SkipMalformed)
	assert.False(t, config.SkipNetworkFailures)
	assert.Equal(t, 256, config.MemoSize)
	assert.Equal(t, "America/New_York", config.Timezone)
	assert.Equal(t, entity.Inception, config.Inception)
	assert.NotEmpty(t, config.CacheDir)
	assert.NotEmpty(t, config.SettingsPath)
}

func TestLoadFeedConfig_CustomValues(t *testing.T) {
	clearFeedEnvVars(t)
	t.Setenv("APOD_PARALLELISM", "4")
	t.Setenv("APOD_SKIP_MALFORMED", "false")
	t.Setenv("APOD_SKIP_NETWORK_FAILURES", "true")
	t.Setenv("APOD_MEMO_SIZE", "0")
	t.Setenv("APOD_TIMEZONE", "UTC")
	t.Setenv("APOD_INCEPTION", "2010-01-01")
	t.Setenv("APOD_CACHE_DIR", "/tmp/apod-cache")
	t.Setenv("APOD_SETTINGS_PATH", "/tmp/apod.cfg")

	config, err := LoadFeedConfig()
	require.NoError(t, err)

	assert.Equal(t, 4, config.Parallelism)
	assert.False(t, config.SkipMalformed)
	assert.True(t, config.SkipNetworkFailures)
	assert.Equal(t, 0, config.MemoSize)
	assert.Equal(t, time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC), config.Inception)
	assert.Equal(t, "/tmp/apod-cache", config.CacheDir)
	assert.Equal(t, "/tmp/apod.cfg", config.SettingsPath)
}

func TestLoadFeedConfig_UnparseableKeepsDefault(t *testing.T) {
	clearFeedEnvVars(t)
	t.Setenv("APOD_PARALLELISM", "many")
	t.Setenv("APOD_SKIP_MALFORMED", "perhaps")
	t.Setenv("APOD_INCEPTION", "June 1995")

	config, err := LoadFeedConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, config.Parallelism)
	assert.True(t, config.SkipMalformed)
	assert.Equal(t, entity.Inception, config.Inception)
}

func TestLoadFeedConfig_OutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "parallelism zero", key: "APOD_PARALLELISM", value: "0"},
		{name: "parallelism too high", key: "APOD_PARALLELISM", value: "64"},
		{name: "negative memo", key: "APOD_MEMO_SIZE", value: "-1"},
		{name: "unknown zone", key: "APOD_TIMEZONE", value: "Moon/Tranquility"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearFeedEnvVars(t)
			t.Setenv(tt.key, tt.value)

			config, err := LoadFeedConfig()

			assert.Nil(t, config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestFeedConfig_Options(t *testing.T) {
	config := &FeedConfig{
		Parallelism:         3,
		SkipMalformed:       false,
		SkipNetworkFailures: true,
		MemoSize:            10,
		Timezone:            "UTC",
		Inception:           entity.Inception,
		CacheDir:            "/c",
		SettingsPath:        "/s",
	}

	opts := config.Options("http://mirror.example/apod/")

	assert.Equal(t, "http://mirror.example/apod/", opts.BaseURL)
	assert.Equal(t, 3, opts.Parallelism)
	assert.False(t, opts.SkipMalformed)
	assert.True(t, opts.SkipNetworkFailures)
	assert.Equal(t, 10, opts.MemoSize)
	assert.Equal(t, time.UTC, opts.Location)
	assert.NotNil(t, opts.Clock)
}
