package pipeline

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Retryable:      func(error) bool { return true },
	}
}

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := fastPolicy(3).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	wantErr := errors.New("still failing")
	err := fastPolicy(3).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicy_DoesNotRetryPermanentErrors(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Millisecond}

	attempts := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("permanent")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicy_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := fastPolicy(10).Do(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&openai.APIError{HTTPStatusCode: 429}))
	assert.True(t, IsTransient(&openai.APIError{HTTPStatusCode: 503}))
	assert.False(t, IsTransient(&openai.APIError{HTTPStatusCode: 400}))
	assert.False(t, IsTransient(errors.New("some failure")))
	assert.False(t, IsTransient(nil))

	var timeoutErr net.Error = &net.DNSError{IsTimeout: true}
	assert.True(t, IsTransient(timeoutErr))
}
