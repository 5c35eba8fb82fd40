package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestRetryPolicyRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return &ProviderError{Provider: ProviderOpenAI, StatusCode: http.StatusServiceUnavailable, Err: errors.New("busy")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyStopsOnPermanentErrors(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return &ProviderError{Provider: ProviderOpenAI, StatusCode: http.StatusUnauthorized, Err: errors.New("bad key")}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	sentinel := errors.New("schema mismatch")
	calls = 0
	err = fastPolicy(5).Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return Permanent(sentinel)
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyReturnsLastError(t *testing.T) {
	calls := 0
	err := fastPolicy(2).Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("malformed json")
	})
	require.EqualError(t, err, "malformed json")
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, func(ctx context.Context, attempt int) error {
			calls++
			return errors.New("transient")
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("retry did not stop after cancellation")
	}
	assert.Equal(t, 1, calls)
}

func TestNoRetrySingleAttempt(t *testing.T) {
	calls := 0
	_ = NoRetry().Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}
