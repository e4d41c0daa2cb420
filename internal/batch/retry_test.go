package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openresponses/fileprep/internal/convert"
	"github.com/openresponses/fileprep/internal/storage"
)

var errTransient = &storage.StorageError{Operation: "write", Path: "x", Err: errors.New("disk hiccup")}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BaseDelay: 0, MaxDelay: 0}
}

func TestRetry_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(3), func(attempt int) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(5), func(attempt int) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(3), func(attempt int) error {
		calls++
		return errTransient
	})
	assert.Equal(t, 3, calls)
	var storageErr *storage.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(5), func(attempt int) error {
		calls++
		return errors.New("deterministic failure")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_CancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Retry(ctx, RetryConfig{MaxAttempts: 5, BaseDelay: time.Minute}, func(attempt int) error {
		calls++
		cancel()
		return errTransient
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetry_AttemptNumberPassedThrough(t *testing.T) {
	var seen []int
	_ = Retry(context.Background(), fastRetry(3), func(attempt int) error {
		seen = append(seen, attempt)
		return errTransient
	})
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errTransient))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", errTransient)))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(&convert.ConversionFailedError{Path: "x"}))
	assert.False(t, IsRetryable(nil))
}
