package retry

import (
	"context"
	"time"
)

// Policy bounds how often and how patiently an operation is retried
type Policy struct {
	MaxAttempts  int           // total attempts including the first, >= 1
	InitialDelay time.Duration // wait after the first failure
	MaxDelay     time.Duration // backoff ceiling
}

// DefaultPolicy is 3 attempts with 1s, 2s waits
var DefaultPolicy = Policy{
	MaxAttempts:  3,
	InitialDelay: time.Second,
	MaxDelay:     10 * time.Second,
}

// Delay returns the wait after the given failed attempt (1-based).
// Delays double from InitialDelay and are capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.InitialDelay <= 0 {
		return 0
	}
	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

type options struct {
	retryable func(error) bool
	onRetry   func(attempt int, delay time.Duration, err error)
}

// Option customizes Do
type Option func(*options)

// If limits retries to errors the predicate accepts
func If(retryable func(error) bool) Option {
	return func(o *options) { o.retryable = retryable }
}

// OnRetry is called before each wait
func OnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(o *options) { o.onRetry = fn }
}

// Do calls fn until it succeeds, returns a non-retryable error, attempts
// run out or ctx is done. It returns the number of attempts made and the
// last error.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error, opts ...Option) (int, error) {
	o := options{retryable: func(error) bool { return true }}
	for _, opt := range opts {
		opt(&o)
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt - 1, err
		}

		err = fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		if attempt == maxAttempts || !o.retryable(err) {
			return attempt, err
		}

		delay := p.Delay(attempt)
		if o.onRetry != nil {
			o.onRetry(attempt, delay, err)
		}
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, err
		case <-timer.C:
		}
	}

	return maxAttempts, err
}
