package resilience

import (
	"math"
	"time"
)

// FromRetryConfig converts config values to a RetryConfig that
// performs maxRetries retries after the first attempt. The backoff before
// retry n (zero-based) is initialBackoffMs * multiplier^n, and MaxBackoff is
// set to the last of those delays so it never clips the sequence.
func FromRetryConfig(maxRetries, initialBackoffMs int, multiplier float64) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxRetries >= 0 {
		cfg.MaxAttempts = maxRetries + 1
	}
	if initialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	if multiplier > 0 {
		cfg.Multiplier = multiplier
	}

	last := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(max(cfg.MaxAttempts-2, 0)))
	if last > float64(cfg.MaxBackoff) {
		cfg.MaxBackoff = time.Duration(last)
	}
	return cfg
}
