package ratelimit

import (
	"sync"
	"time"
)

// Limiter throttles outbound API requests.
type Limiter interface {
	// Allow reports whether a request may proceed right now.
	Allow() bool
	// Wait blocks until the limiter allows another request.
	Wait()
	// Reset restores the limiter to its initial state.
	Reset()
}

// FixedDelay enforces a constant pause between consecutive requests. This
// is the throttle used between harvested pages.
type FixedDelay struct {
	delay time.Duration
	last  time.Time
	mu    sync.Mutex
}

// NewFixedDelay creates a fixed-delay limiter. A zero or negative delay
// disables throttling.
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay}
}

// Allow reports whether the delay since the previous request has elapsed,
// consuming the slot when it has.
func (fd *FixedDelay) Allow() bool {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	now := time.Now()
	if fd.last.IsZero() || now.Sub(fd.last) >= fd.delay {
		fd.last = now
		return true
	}
	return false
}

// Wait blocks until the configured delay since the previous request has
// elapsed.
func (fd *FixedDelay) Wait() {
	if fd.delay <= 0 {
		return
	}

	for {
		fd.mu.Lock()
		remaining := fd.delay - time.Since(fd.last)
		if fd.last.IsZero() || remaining <= 0 {
			fd.last = time.Now()
			fd.mu.Unlock()
			return
		}
		fd.mu.Unlock()
		time.Sleep(remaining)
	}
}

// Reset clears the last-request timestamp.
func (fd *FixedDelay) Reset() {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	fd.last = time.Time{}
}

// TokenBucket allows bursts up to a capacity that refills after a period.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a token bucket limiter.
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow consumes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available.
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill > 0 {
			time.Sleep(timeUntilRefill)
		} else {
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Reset refills the bucket to capacity.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}
