package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidateCronSchedule validates a standard five-field cron expression
// (minute hour day-of-month month day-of-week).
//
// Example:
//
//	ValidateCronSchedule("15 0 * * *") // nil
//	ValidateCronSchedule("invalid")    // error
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}

	return nil
}

// ValidateTimezone validates an IANA time zone name such as "America/New_York".
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}

	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}

	return nil
}

// ValidateDuration checks that duration lies within [min, max].
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}
	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}
	return nil
}

// ValidateIntRange checks that value lies within [min, max].
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}
	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}
	return nil
}

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	return nil
}

// ValidatePositiveFloat rejects zero and negative values.
func ValidatePositiveFloat(value float64) error {
	if value <= 0 {
		return fmt.Errorf("value must be positive, got %v", value)
	}
	return nil
}

// ValidateHTTPURL accepts absolute http and https URLs with a host.
// A base URL must end with "/" so that page names can be appended to it.
func ValidateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL '%s': scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL '%s': missing host", raw)
	}
	return nil
}
