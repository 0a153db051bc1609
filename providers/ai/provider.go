package ai

import (
	"context"
	"time"
)

// DefaultTimeout bounds the dispatch of a request when RequestOptions does not.
const DefaultTimeout = 180 * time.Second

// RequestOptions tune a single model instance's requests.
type RequestOptions struct {
	// Timeout covers dispatch until the response headers arrive. Zero or
	// negative selects DefaultTimeout.
	Timeout time.Duration
	// BaseURL replaces the production endpoint origin, for emulators and
	// tests. It must not end with a slash.
	BaseURL string
}

// EffectiveTimeout returns Timeout, or DefaultTimeout when unset.
func (o RequestOptions) EffectiveTimeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Provider is the request-level generation API. The model argument is a
// normalised resource name (see [NormalizeModelName]).
//
// Pre-stream failures of GenerateContentStream (auth, bad request, network)
// are returned as a normal error; failures after the response started are
// delivered through the stream.
type Provider interface {
	GenerateContent(ctx context.Context, model string, request GenerateContentRequest, options RequestOptions) (*EnhancedResponse, error)
	GenerateContentStream(ctx context.Context, model string, request GenerateContentRequest, options RequestOptions) (*GenerateContentStream, error)
	CountTokens(ctx context.Context, model string, request CountTokensRequest, options RequestOptions) (*CountTokensResponse, error)
}

// TemplateProvider runs server-side prompt templates addressed by id.
type TemplateProvider interface {
	TemplateGenerateContent(ctx context.Context, templateID string, inputs map[string]any, options RequestOptions) (*EnhancedResponse, error)
	TemplateGenerateContentStream(ctx context.Context, templateID string, inputs map[string]any, options RequestOptions) (*GenerateContentStream, error)
}

// ImageProvider runs the predict task of Imagen models and returns the raw
// response body for [ParseImagenResponse].
type ImageProvider interface {
	Predict(ctx context.Context, model string, request PredictRequest, options RequestOptions) ([]byte, error)
}
