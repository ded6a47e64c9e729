package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// LoadEnvString
// ============================================================================

func TestLoadEnvString(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "with value", value: "/srv/apod.cfg", want: "/srv/apod.cfg"},
		{name: "empty string uses default", value: "", want: "default_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_STRING", tt.value)
			assert.Equal(t, tt.want, LoadEnvString("TEST_STRING", "default_value"))
		})
	}
}

// ============================================================================
// LoadEnvWithFallback
// ============================================================================

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         string
		wantFallback bool
	}{
		{name: "valid value", value: "0 6 * * *", want: "0 6 * * *"},
		{name: "unset uses default silently", value: "", want: "15 0 * * *"},
		{name: "invalid value falls back", value: "not a cron", want: "15 0 * * *", wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CRON", tt.value)

			result := LoadEnvWithFallback("TEST_CRON", "15 0 * * *", ValidateCronSchedule)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
			if tt.wantFallback {
				assert.Len(t, result.Warnings, 1)
				assert.Contains(t, result.Warnings[0], "Invalid TEST_CRON='not a cron'")
				assert.Contains(t, result.Warnings[0], "falling back to default '15 0 * * *'")
			} else {
				assert.Empty(t, result.Warnings)
			}
		})
	}
}

func TestLoadEnvWithFallback_NilValidator(t *testing.T) {
	t.Setenv("TEST_ANY", "anything goes")

	result := LoadEnvWithFallback("TEST_ANY", "default", nil)

	assert.Equal(t, "anything goes", result.Value)
	assert.False(t, result.FallbackApplied)
}

// ============================================================================
// Typed loaders
// ============================================================================

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         time.Duration
		wantFallback bool
	}{
		{name: "valid duration", value: "5m", want: 5 * time.Minute},
		{name: "unset", value: "", want: 10 * time.Second},
		{name: "unparseable", value: "soon", want: 10 * time.Second, wantFallback: true},
		{name: "negative rejected", value: "-1s", want: 10 * time.Second, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_TIMEOUT", tt.value)

			result := LoadEnvDuration("TEST_TIMEOUT", 10*time.Second, ValidatePositiveDuration)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	inPortRange := func(v int) error { return ValidateIntRange(v, 1024, 65535) }

	tests := []struct {
		name         string
		value        string
		want         int
		wantFallback bool
	}{
		{name: "valid", value: "9091", want: 9091},
		{name: "unset", value: "", want: 9090},
		{name: "trailing garbage", value: "9091abc", want: 9090, wantFallback: true},
		{name: "out of range", value: "80", want: 9090, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_PORT", tt.value)

			result := LoadEnvInt("TEST_PORT", 9090, inPortRange)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvInt64(t *testing.T) {
	atLeastKiB := func(v int64) error {
		if v < 1024 {
			return fmt.Errorf("must be at least 1024 bytes")
		}
		return nil
	}

	t.Setenv("TEST_BYTES", "1048576")
	result := LoadEnvInt64("TEST_BYTES", 4<<20, atLeastKiB)
	assert.Equal(t, int64(1048576), result.Value)

	t.Setenv("TEST_BYTES", "0")
	result = LoadEnvInt64("TEST_BYTES", 4<<20, atLeastKiB)
	assert.Equal(t, int64(4<<20), result.Value)
	assert.True(t, result.FallbackApplied)
}

func TestLoadEnvFloat(t *testing.T) {
	t.Setenv("TEST_RATE", "0.5")
	result := LoadEnvFloat("TEST_RATE", 2, ValidatePositiveFloat)
	assert.Equal(t, 0.5, result.Value)
	assert.False(t, result.FallbackApplied)

	t.Setenv("TEST_RATE", "fast")
	result = LoadEnvFloat("TEST_RATE", 2, ValidatePositiveFloat)
	assert.Equal(t, 2.0, result.Value)
	assert.True(t, result.FallbackApplied)
}

func TestLoadEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         bool
		wantFallback bool
	}{
		{name: "true", value: "true", want: true},
		{name: "one", value: "1", want: true},
		{name: "FALSE", value: "FALSE", want: false},
		{name: "unset", value: "", want: false},
		{name: "invalid", value: "yes", want: false, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)

			result := LoadEnvBool("TEST_BOOL", false)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.wantFallback, result.FallbackApplied)
		})
	}
}
