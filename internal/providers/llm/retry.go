package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yoockh/intervue/internal/models"
)

type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// RetryProvider retries transient failures with exponential backoff.
// Client errors and context expiry are returned immediately.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

func WithRetry(p Provider, cfg RetryConfig) *RetryProvider {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Name() string { return r.inner.Name() }

func (r *RetryProvider) Close() error { return r.inner.Close() }

func (r *RetryProvider) Complete(ctx context.Context, messages []models.Message) (string, error) {
	var out string
	op := func() error {
		reply, err := r.inner.Complete(ctx, messages)
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = reply
		return nil
	}

	if err := backoff.Retry(op, r.policy(ctx)); err != nil {
		return "", err
	}
	return out, nil
}

func (r *RetryProvider) policy(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.config.InitialInterval
	expo.MaxInterval = r.config.MaxInterval
	// the caller's deadline bounds the total time
	expo.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(r.config.MaxAttempts-1)), ctx)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ce *ErrClient
	return !errors.As(err, &ce)
}
