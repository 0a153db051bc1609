package middleware

import (
	"context"
	"time"

	"github.com/leofalp/fireai/core/client"
	"github.com/leofalp/fireai/providers/ai"
)

// NewTimeoutMiddleware bounds the whole lifetime of a generation, unlike
// ai.RequestOptions.Timeout which only bounds the wait for response headers.
//
// For streams the deadline covers reading every frame: the derived context is
// released once the stream has ended, whether or not the caller consumes it.
// A shorter deadline already on the caller's context wins.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send:   buildSendTimeout(timeout),
		Stream: buildStreamTimeout(timeout),
	}
}

func buildSendTimeout(timeout time.Duration) client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, call client.Call) (*ai.EnhancedResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, call)
		}
	}
}

func buildStreamTimeout(timeout time.Duration) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, call client.Call) (*ai.GenerateContentStream, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			stream, err := next(ctx, call)
			if err != nil {
				cancel()
				return nil, err
			}

			// The read loop ends at EOF, on error or when ctx expires, so
			// this always returns.
			go func() {
				_, _ = stream.Response(context.Background())
				cancel()
			}()

			return stream, nil
		}
	}
}
