package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy bounds a retried operation: how many attempts, how long to wait
// between them, and how long each attempt may run.
type Policy struct {
	MaxAttempts    int
	Delay          time.Duration
	AttemptTimeout time.Duration
}

// permanentError wraps an error that must not be retried.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks an error as non-retryable; Do stops immediately on it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries the non-retryable marker.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs fn under the policy. Each attempt gets its own timeout context.
// It returns nil on the first success, the unwrapped cause for a permanent
// failure, and the last error once attempts are exhausted.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if policy.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
		}

		err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}

		var p *permanentError
		if errors.As(err, &p) {
			return p.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		if attempt < attempts && policy.Delay > 0 {
			if err := Sleep(ctx, policy.Delay); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

// maxSleepSlice caps each uninterruptible stretch so cancellation is noticed
// promptly even for multi-hour waits.
const maxSleepSlice = 60 * time.Second

// Sleep blocks for d or until ctx is cancelled, sleeping in slices of at most
// 60 seconds. Returns ctx.Err() when interrupted.
func Sleep(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		slice := remaining
		if slice > maxSleepSlice {
			slice = maxSleepSlice
		}

		timer := time.NewTimer(slice)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
