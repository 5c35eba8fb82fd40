package llm

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryPolicy bounds how often a provider call site is repeated.
type RetryPolicy struct {
	// MaxAttempts counts the initial call. Values below 1 mean a single attempt.
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	JitterFraction    float64
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        8 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// NoRetry performs every operation exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err so Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Do runs op until it succeeds, the attempts run out, the error is not
// retryable, or ctx ends. The attempt number starts at 1.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			var perm permanentError
			if errors.As(lastErr, &perm) {
				return perm.err
			}
			return lastErr
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.jittered(backoff)):
		}
		backoff = time.Duration(float64(backoff) * p.multiplier())
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
	return lastErr
}

func (p RetryPolicy) multiplier() float64 {
	if p.BackoffMultiplier < 1 {
		return 1
	}
	return p.BackoffMultiplier
}

func (p RetryPolicy) jittered(d time.Duration) time.Duration {
	if d <= 0 || p.JitterFraction <= 0 {
		return d
	}
	jitter := time.Duration(float64(d) * p.JitterFraction * (rand.Float64()*2 - 1))
	if d+jitter < 0 {
		return d
	}
	return d + jitter
}

// IsRetryable reports whether another attempt may succeed. A joined error,
// as returned by Chain, is retryable when any of its members is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, member := range joined.Unwrap() {
			if IsRetryable(member) {
				return true
			}
		}
		return false
	}
	var perm permanentError
	if errors.As(err, &perm) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return true
}
