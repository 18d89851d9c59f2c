package retry

import "time"

// MaxDelay bounds every delay returned by ExponentialBackoff.
const MaxDelay = 5 * time.Minute

// ExponentialBackoff returns base * 2^attempt, capped at MaxDelay.
// Negative attempts are treated as zero.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base <= 0 {
		return 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= MaxDelay {
			return MaxDelay
		}
	}
	if d > MaxDelay {
		return MaxDelay
	}
	return d
}
