package pipeline

import (
	"context"
	"errors"
	"net"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// RetryPolicy retries transient failures with exponential backoff. It is an
// explicit policy value rather than ad hoc loops inside the stages: a stage
// wraps its network call in Do and gets back either success or the final
// exhausted error.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Retryable decides whether an error is worth another attempt.
	// Defaults to IsTransient.
	Retryable func(error) bool
}

func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return RetryPolicy{
		MaxAttempts:    maxAttempts,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
	}
}

// Do runs fn, retrying transient failures until the attempt budget is spent
// or the context is cancelled. The error from the final attempt is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
	return err
}

// IsTransient reports whether an error looks like a rate limit or a passing
// network fault rather than a permanent failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 408, 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
