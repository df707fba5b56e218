// Package retry is the single retry policy shared by every outbound call
// site: a fixed maximum attempt count with a fixed inter-attempt delay.
// Only errors explicitly marked Transient are retried; everything else is
// terminal and returned after the first attempt.
package retry

import (
	"context"
	"errors"
	"time"
)

type Policy struct {
	MaxAttempts int
	Delay       time.Duration

	// Sleep is overridable for tests; nil means time.Sleep with context
	// cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Defaults match the upstream services' tolerances: three attempts, five
// seconds apart, no backoff, no jitter.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 5 * time.Second}
}

// Do runs op up to MaxAttempts times. The last error is propagated
// unchanged (still wrapped Transient, so callers can classify it).
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == attempts {
			return err
		}
		if serr := sleep(ctx, p.Delay); serr != nil {
			return serr
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable. Marking nil returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
