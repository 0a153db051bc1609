package client

import (
	"context"

	"github.com/leofalp/fireai/providers/ai"
)

// Call is one generation request as it travels through the middleware chain:
// the normalised model resource name, the fully merged request and the
// model's request options.
type Call struct {
	Model   string
	Request ai.GenerateContentRequest
	Options ai.RequestOptions
}

// SendFunc performs a unary generation. It is the base unit threaded through
// the send middleware chain.
type SendFunc func(ctx context.Context, call Call) (*ai.EnhancedResponse, error)

// StreamFunc starts a streaming generation. It is the base unit threaded
// through the stream middleware chain.
type StreamFunc func(ctx context.Context, call Call) (*ai.GenerateContentStream, error)

// Middleware wraps a SendFunc. Middlewares are applied outermost-first: the
// first entry of a slice sees the request first and the response last.
type Middleware func(next SendFunc) SendFunc

// StreamMiddleware is the streaming counterpart of Middleware. It may wrap the
// returned stream to observe its frames or its aggregated response.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a send middleware with its optional streaming
// counterpart. Send is required; a nil Stream means streaming calls skip this
// entry.
type MiddlewareConfig struct {
	Send   Middleware
	Stream StreamMiddleware
}

// buildSendChain wraps provider.GenerateContent with middlewares, applied in
// reverse so that middlewares[0] is the outermost.
func buildSendChain(provider ai.Provider, middlewares []MiddlewareConfig) SendFunc {
	var chain SendFunc = func(ctx context.Context, call Call) (*ai.EnhancedResponse, error) {
		return provider.GenerateContent(ctx, call.Model, call.Request, call.Options)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Send(chain)
	}
	return chain
}

// buildStreamChain wraps provider.GenerateContentStream with the non-nil
// stream middlewares, middlewares[0] outermost.
func buildStreamChain(provider ai.Provider, middlewares []MiddlewareConfig) StreamFunc {
	var chain StreamFunc = func(ctx context.Context, call Call) (*ai.GenerateContentStream, error) {
		return provider.GenerateContentStream(ctx, call.Model, call.Request, call.Options)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}
	return chain
}
