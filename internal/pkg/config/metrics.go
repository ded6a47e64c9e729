package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics tracks configuration loading for one component.
// Metric names follow the {component}_config_* pattern, e.g. worker_config_fallbacks_total.
type ConfigMetrics struct {
	// LoadTimestamp is the Unix time of the last configuration load.
	LoadTimestamp prometheus.Gauge

	// ValidationErrorsTotal counts validation errors by field.
	ValidationErrorsTotal *prometheus.CounterVec

	// FallbacksTotal counts fallbacks by field.
	FallbacksTotal *prometheus.CounterVec

	// FallbackActive is 1 while any field runs on its default after a failed load.
	FallbackActive prometheus.Gauge

	componentName string
}

// NewConfigMetricsWith registers the metrics for componentName with reg.
// Registering the same component twice on one registry panics.
func NewConfigMetricsWith(reg prometheus.Registerer, componentName string) *ConfigMetrics {
	factory := promauto.With(reg)
	return &ConfigMetrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),
		ValidationErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),
		componentName: componentName,
	}
}

// RecordLoadTimestamp sets the load timestamp to now.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError counts a validation error for field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts a fallback for field.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive flips the fallback gauge.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}

// Observe records one ConfigLoadResult for field: a fallback counts as both a
// validation error and a fallback.
func (m *ConfigMetrics) Observe(field string, result ConfigLoadResult) {
	if m == nil || !result.FallbackApplied {
		return
	}
	m.RecordValidationError(field)
	m.RecordFallback(field)
}
