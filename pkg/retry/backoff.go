package retry

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func ExponentialBackoff(initialInterval, maxInterval time.Duration, multiplier float64) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.MaxInterval = maxInterval
	exp.Multiplier = multiplier
	exp.MaxElapsedTime = 0
	return exp
}

// NewBackOff builds the delay schedule for a policy. A zero InitialInterval
// means attempts follow each other immediately.
func NewBackOff(policy Policy) backoff.BackOff {
	policy = policy.normalized()

	var b backoff.BackOff
	if policy.InitialInterval <= 0 {
		b = &backoff.ZeroBackOff{}
	} else {
		maxInterval := policy.MaxInterval
		if maxInterval < policy.InitialInterval {
			maxInterval = policy.InitialInterval
		}
		exp := ExponentialBackoff(policy.InitialInterval, maxInterval, policy.Multiplier)
		if policy.MaxElapsedTime > 0 {
			exp.(*backoff.ExponentialBackOff).MaxElapsedTime = policy.MaxElapsedTime
		}
		b = exp
	}

	return backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1))
}

func CalculateBackoffDuration(attempt int, initialInterval time.Duration, multiplier float64, maxInterval time.Duration) time.Duration {
	if initialInterval <= 0 {
		return 0
	}
	duration := float64(initialInterval) * math.Pow(multiplier, float64(attempt))
	if maxInterval > 0 && duration > float64(maxInterval) {
		return maxInterval
	}
	return time.Duration(duration)
}
