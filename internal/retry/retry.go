// Package retry wraps a callable with jittered exponential backoff.
//
// The delay schedule generalizes the job-creation-time backoff resolution
// in the teacher repo's jobs package into a general-purpose runtime helper:
// for the k-th retry (1-indexed), nominal delay = min(base*factor^(k-1),
// max); when Jitter is set, the actual delay is drawn uniformly from
// [0, nominal] ("full jitter") to avoid synchronised retry storms across
// many concurrently scheduled jobs.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Policy configures a retry loop.
type Policy struct {
	MaxAttempts  int           // >= 1, includes the first attempt
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	BackoffFactor float64
	Jitter       bool

	// Retriable decides whether an error should be retried. A nil
	// Retriable retries every non-nil error.
	Retriable func(error) bool

	// OnRetry is invoked after a failed attempt, before sleeping. Panics
	// and errors from OnRetry are recovered/ignored; they never interrupt
	// the retry loop.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Predefined policies used elsewhere in the core.
var (
	Critical = Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 60 * time.Second, BackoffFactor: 2.0, Jitter: true}
	Standard = Policy{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 30 * time.Second, BackoffFactor: 2.0, Jitter: true}
	Fast     = Policy{MaxAttempts: 10, BaseDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second, BackoffFactor: 1.5, Jitter: true}
)

// NominalDelay returns the uncapped-then-capped delay for the k-th retry
// (1-indexed), before jitter is applied. Exposed so callers can verify
// property P5 (retry delay bounds) directly.
func (p Policy) NominalDelay(k int) time.Duration {
	if k < 1 {
		k = 1
	}
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	exp := math.Pow(factor, float64(k-1))
	d := time.Duration(float64(p.BaseDelay) * exp)
	if d <= 0 {
		d = p.BaseDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Delay returns the delay to actually sleep for the k-th retry: the
// nominal delay, or a value drawn uniformly from [0, nominal] when Jitter
// is enabled.
func (p Policy) Delay(k int) time.Duration {
	nominal := p.NominalDelay(k)
	if !p.Jitter || nominal <= 0 {
		return nominal
	}
	return time.Duration(rand.Int64N(int64(nominal) + 1))
}

// ErrAttemptsExhausted wraps the last error seen after every attempt has
// been spent, so Do's documented post-condition ("after the final failed
// attempt, the last error is re-raised unchanged") is satisfied via
// errors.Unwrap returning the original error.
type ErrAttemptsExhausted struct {
	Attempts int
	Last     error
}

func (e *ErrAttemptsExhausted) Error() string { return e.Last.Error() }
func (e *ErrAttemptsExhausted) Unwrap() error  { return e.Last }

// Do invokes f until it succeeds or the policy's attempts are exhausted.
// An error not matching Retriable propagates immediately, without retry.
func Do[T any](ctx context.Context, p Policy, f func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := f(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if p.Retriable != nil && !p.Retriable(err) {
			return zero, err
		}

		if attempt == attempts {
			break
		}

		delay := p.Delay(attempt)
		safeObserve(p.OnRetry, attempt, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, errors.Join(ctx.Err(), &ErrAttemptsExhausted{Attempts: attempt, Last: lastErr})
		case <-timer.C:
		}
	}
	return zero, &ErrAttemptsExhausted{Attempts: attempts, Last: lastErr}
}

func safeObserve(onRetry func(int, error, time.Duration), attempt int, err error, delay time.Duration) {
	if onRetry == nil {
		return
	}
	defer func() { _ = recover() }()
	onRetry(attempt, err, delay)
}
