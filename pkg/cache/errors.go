package cache

import (
	"context"
	"errors"
	"time"
)

// ErrTransient marks a failure worth retrying, such as a dropped connection
// to a remote cache or a project file caught mid-write.
var ErrTransient = errors.New("transient failure")

// RetryableError marks an error as retryable for RetryWithBackoff.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff controls RetryWithBackoff.
var Backoff = struct {
	Attempts int
	Initial  time.Duration
}{Attempts: 3, Initial: 200 * time.Millisecond}

// RetryWithBackoff calls fn until it succeeds, returns a non-retryable
// error, or Backoff.Attempts is reached. The delay doubles after every
// attempt.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := Backoff.Initial
	var lastErr error
	for i := range Backoff.Attempts {
		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if i == Backoff.Attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}
