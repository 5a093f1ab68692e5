package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "dermquiz/pkg/errors"
	"dermquiz/pkg/logger"
)

// Operation is a function that may need retrying.
type Operation func() error

// OperationWithResult is a function returning a result that may need
// retrying.
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff strategy between attempts.
	Backoff BackoffStrategy
	// RetryIf decides whether an error is worth another attempt.
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation during backoff waits.
	Context context.Context
	// Logger for retry attempts.
	Logger logger.Logger
}

// DefaultConfig returns the retry policy used for page fetches: five
// attempts with exponential backoff capped at 20 seconds.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries typed API errors whose type is classified as
// retryable, and anything unknown. Context cancellation is never retried.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// Do executes an operation with retry logic. When every attempt fails the
// last error is returned wrapped as a terminal failure.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error

	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return errs.Terminal(
				fmt.Sprintf("max retry attempts (%d) exceeded", cfg.MaxAttempts),
				lastErr,
			)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		lastErr = err

		if !cfg.RetryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		delay := cfg.Backoff.NextDelay(attempt)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		ctx := cfg.Context
		if ctx == nil {
			ctx = context.Background()
		}
		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic.
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}

// Retrier is a reusable retry mechanism.
type Retrier struct {
	config *Config
}

// NewRetrier creates a retrier with the given configuration.
func NewRetrier(cfg *Config) *Retrier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Retrier{config: cfg}
}

// Do executes an operation with the retrier's policy.
func (r *Retrier) Do(op Operation) error {
	return Do(op, r.config)
}

// WithMaxAttempts returns a retrier with an updated attempt budget.
func (r *Retrier) WithMaxAttempts(maxAttempts int) *Retrier {
	newConfig := *r.config
	newConfig.MaxAttempts = maxAttempts
	return &Retrier{config: &newConfig}
}

// WithBackoff returns a retrier with an updated backoff strategy.
func (r *Retrier) WithBackoff(backoff BackoffStrategy) *Retrier {
	newConfig := *r.config
	newConfig.Backoff = backoff
	return &Retrier{config: &newConfig}
}
