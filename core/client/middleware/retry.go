package middleware

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/leofalp/fireai/core/client"
	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/observability"
)

// RetryConfig holds the tuning parameters for the retry middleware. Zero
// values are replaced with the defaults documented below.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first failure.
	// Default: 3.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps a single wait. Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the wait after each retry. Default: 2.0.
	BackoffFactor float64

	// JitterFraction randomises each wait by up to this fraction in either
	// direction. Default: 0.1.
	JitterFraction float64

	// RetryableFunc reports whether an error should be retried. The default
	// retries fetch-error responses with status 429, 500, 502, 503 or 504.
	RetryableFunc func(error) bool
}

var retryableStatuses = []int{429, 500, 502, 503, 504}

// IsRetryable is the default RetryableFunc.
func IsRetryable(err error) bool {
	var aiErr *ai.Error
	if !errors.As(err, &aiErr) || aiErr.Code != ai.ErrorCodeFetchError || aiErr.CustomData == nil {
		return false
	}
	return slices.Contains(retryableStatuses, aiErr.CustomData.Status)
}

func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}
	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}
	if config.RetryableFunc == nil {
		config.RetryableFunc = IsRetryable
	}
}

// newBackOff returns a fresh exponential schedule that stops after
// MaxRetries waits. The elapsed time is not bounded; MaxRetries is.
func newBackOff(config RetryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = config.InitialBackoff
	b.MaxInterval = config.MaxBackoff
	b.Multiplier = config.BackoffFactor
	b.RandomizationFactor = config.JitterFraction
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(config.MaxRetries))
}

// NewRetryMiddleware retries generations that fail with a retryable error.
//
// For streams only the call that opens the stream is retried: once frames
// have been delivered, a failure is reported through the stream as usual.
//
// On exhaustion the returned error wraps both [ErrRetryExhausted] and the
// last provider error.
func NewRetryMiddleware(config RetryConfig) client.MiddlewareConfig {
	applyRetryDefaults(&config)

	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, call client.Call) (*ai.EnhancedResponse, error) {
				return retry(ctx, config, func(ctx context.Context) (*ai.EnhancedResponse, error) {
					return next(ctx, call)
				})
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, call client.Call) (*ai.GenerateContentStream, error) {
				return retry(ctx, config, func(ctx context.Context) (*ai.GenerateContentStream, error) {
					return next(ctx, call)
				})
			}
		},
	}
}

func retry[T any](ctx context.Context, config RetryConfig, attempt func(context.Context) (T, error)) (T, error) {
	var zero T
	schedule := newBackOff(config)

	for n := 1; ; n++ {
		result, err := attempt(ctx)
		if err == nil {
			return result, nil
		}
		if !config.RetryableFunc(err) {
			return zero, err
		}

		wait := schedule.NextBackOff()
		if wait == backoff.Stop {
			return zero, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, err)
		}

		if span := observability.SpanFromContext(ctx); span != nil {
			span.AddEvent(observability.EventRetry,
				observability.Int(observability.AttrRetryAttempt, n+1),
				observability.Duration(observability.AttrDuration, wait),
				observability.Error(err),
			)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
