package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultRetryConfig provides sensible defaults for upload retries.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    30 * time.Second,
	Jitter:      true,
}

// retryable is implemented by errors that may succeed on a later attempt.
type retryable interface {
	IsRetryable() bool
}

// IsRetryable reports whether err (or anything it wraps) is retryable.
// Conversion errors are deterministic and never retried; storage errors
// are typically transient I/O issues and are.
func IsRetryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func(attempt int) error

// Retry executes fn with exponential backoff: baseDelay * 2^(attempt-1),
// capped at MaxDelay, with optional ±25% jitter to avoid thundering herd.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt >= config.MaxAttempts {
			break
		}

		delay := config.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
		if config.Jitter {
			delay = applyJitter(delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return lastErr
}

func applyJitter(delay time.Duration) time.Duration {
	jitter := (rand.Float64() - 0.5) * 0.5 // [-0.25, 0.25)
	return time.Duration(float64(delay) * (1 + jitter))
}
