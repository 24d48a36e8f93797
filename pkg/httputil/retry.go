package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient. The client wraps connection
// errors and 5xx responses with it; anything else (404, decode failures,
// structural errors) is permanent and must fail the aggregation run on the
// first attempt.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Backoff is the retry policy for upstream calls.
//
// The zero value performs exactly one attempt. That is the default for every
// client in this service: an aggregation run surfaces upstream failures
// immediately rather than papering over them, and memoized lookups would pin
// a slow retried failure for the process lifetime. Operators opt in to
// retries per client via [Client.SetAttempts].
type Backoff struct {
	// Attempts is the total number of tries. Values below 1 mean 1.
	Attempts int

	// Delay is the wait before the second attempt; it doubles after each
	// subsequent failure.
	Delay time.Duration
}

// Do runs fn under the policy. Only failures wrapped in [RetryableError] are
// tried again; the first permanent error returns immediately. When every
// attempt fails the last error is returned, or ctx.Err() if the wait is
// cancelled.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var lastErr error
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
