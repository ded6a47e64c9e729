// Package config provides environment-variable loaders that never fail.
//
// Every loader returns a usable value: an unset variable yields the default
// silently, and an unparseable or invalid value yields the default together
// with a warning that callers log and count in ConfigMetrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult represents the result of loading a configuration value.
//
// Fields:
//   - Value: The loaded configuration value (may be fallback if validation failed)
//   - Warnings: List of warning messages (one per fallback applied)
//   - FallbackApplied: True if the default value was used due to a parse or validation failure
//
// Example:
//
//	result := LoadEnvDuration("REFRESH_TIMEOUT", 10*time.Minute, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    for _, warning := range result.Warnings {
//	        logger.Warn("configuration fallback", slog.String("warning", warning))
//	    }
//	}
//	timeout := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString loads a string value from an environment variable.
// An unset or empty variable returns defaultValue. No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// loadEnv is the shared parse, validate, fall back sequence behind every typed loader.
func loadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := parse(raw)
	if err == nil && validator != nil {
		err = validator(parsed)
	}
	if err != nil {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey, raw, err, defaultValue,
			)},
			FallbackApplied: true,
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvWithFallback loads a string value and validates it.
// If validation fails the default is used and a warning is generated.
//
// Warning format:
//
//	"Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string ("30s", "10m", "1h30m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvInt64 loads a base-10 64-bit integer, used for byte limits.
func LoadEnvInt64(envKey string, defaultValue int64, validator func(int64) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(s string) (int64, error) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvFloat loads a floating point number, used for request rates.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(s string) (float64, error) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number format")
		}
		return v, nil
	}, validator)
}

// LoadEnvBool loads a boolean.
// Accepted values are those of strconv.ParseBool: 1, t, T, true, TRUE, True and their false counterparts.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, func(s string) (bool, error) {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return v, nil
	}, nil)
}
