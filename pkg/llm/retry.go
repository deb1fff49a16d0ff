package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryProvider decorates an LLMProvider with bounded exponential backoff.
// Transient provider failures (timeouts, 5xx) are retried; once attempts are
// exhausted the last error is returned and the caller decides how to degrade.
type RetryProvider struct {
	inner       LLMProvider
	maxRetries  uint64
	maxInterval time.Duration
}

var _ LLMProvider = &RetryProvider{}

func NewRetryProvider(inner LLMProvider, maxRetries int) *RetryProvider {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RetryProvider{
		inner:       inner,
		maxRetries:  uint64(maxRetries),
		maxInterval: 10 * time.Second,
	}
}

func (r *RetryProvider) backoffPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = r.maxInterval
	return backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx)
}

func (r *RetryProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	var result string
	operation := func() error {
		response, err := r.inner.Chat(ctx, history, options...)
		if err != nil {
			return err
		}
		result = response
		return nil
	}
	if err := backoff.Retry(operation, r.backoffPolicy(ctx)); err != nil {
		return "", err
	}
	return result, nil
}

func (r *RetryProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return r.Chat(ctx, []Message{{Role: "user", Content: prompt}}, options...)
}
