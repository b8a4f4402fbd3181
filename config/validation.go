package config

import (
	"fmt"
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validateMonitor(&c.Monitor)...)
	errors = append(errors, validatePriceWatch(&c.PriceWatch)...)
	errors = append(errors, validateHealthServer(&c.HealthServer)...)

	if c.Hyperliquid.APIURL == "" {
		errors = append(errors, ValidationError{
			Field:   "hyperliquid.api_url",
			Message: "must not be empty",
		})
	}

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateMonitor(m *MonitorConfig) []ValidationError {
	var errors []ValidationError

	if m.PollInterval < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "monitor.poll_interval",
			Message: "must be at least 1 second",
		})
	}

	if m.FetchTimeout < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "monitor.fetch_timeout",
			Message: "must be at least 1 second",
		})
	}

	if m.SizeThresholdUSD < 0 {
		errors = append(errors, ValidationError{
			Field:   "monitor.size_threshold_usd",
			Message: "must be non-negative",
		})
	}

	if m.PriceThresholdPct <= 0 || m.PriceThresholdPct > 100 {
		errors = append(errors, ValidationError{
			Field:   "monitor.price_threshold_pct",
			Message: "must be between 0 and 100",
		})
	}

	if m.SharedSuppressWindow < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "monitor.shared_suppress_window",
			Message: "must be at least 1 second",
		})
	}

	if m.MaxConcurrentChecks < 1 {
		errors = append(errors, ValidationError{
			Field:   "monitor.max_concurrent_checks",
			Message: "must be at least 1",
		})
	}

	return errors
}

func validatePriceWatch(pw *PriceWatchConfig) []ValidationError {
	var errors []ValidationError

	if !pw.Enabled {
		return nil
	}

	if len(pw.Coins) == 0 {
		errors = append(errors, ValidationError{
			Field:   "price_watch.coins",
			Message: "must name at least one coin when enabled",
		})
	}

	if pw.ThresholdPct <= 0 || pw.ThresholdPct > 100 {
		errors = append(errors, ValidationError{
			Field:   "price_watch.threshold_pct",
			Message: "must be between 0 and 100",
		})
	}

	return errors
}

func validateHealthServer(hs *HealthServerConfig) []ValidationError {
	var errors []ValidationError

	if hs.Port < 1 || hs.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "health_server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", hs.Port),
		})
	}

	return errors
}
