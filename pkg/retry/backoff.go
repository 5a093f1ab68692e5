package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy computes the delay before a retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the delay before the given attempt (1-based).
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles the delay every attempt up to a cap, with
// optional jitter.
type ExponentialBackoff struct {
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the computed delay.
	MaxDelay time.Duration
	// Multiplier is the factor by which the delay grows per attempt.
	Multiplier float64
	// JitterFactor adds randomness to the delay (0.0 to 1.0).
	JitterFactor float64
}

// DefaultExponentialBackoff matches the harvesting retry policy: delays of
// 2s, 4s, 8s, 16s capped at 20s.
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  2 * time.Second,
		MaxDelay:   20 * time.Second,
		Multiplier: 2.0,
	}
}

// NextDelay calculates the delay before the given attempt.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// ConstantBackoff waits the same delay before every retry.
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns the constant delay.
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait sleeps for the given delay or until the context is cancelled.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
