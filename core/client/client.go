package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/ai/firebase"
	"github.com/leofalp/fireai/providers/ai/live"
	"github.com/leofalp/fireai/providers/observability"
	"github.com/leofalp/fireai/providers/transport/ws"
)

// Client binds validated settings to a provider and hands out model handles.
// It is immutable after New and safe for concurrent use.
type Client struct {
	settings     ai.Settings
	provider     ai.Provider
	templates    ai.TemplateProvider
	images       ai.ImageProvider
	observer     observability.Provider
	newTransport func() live.Transport

	send   SendFunc
	stream StreamFunc
}

// ClientOptions holds the values set by the With* options of [New].
type ClientOptions struct {
	// HTTPClient is used by the default Firebase provider. Nil selects
	// http.DefaultClient.
	HTTPClient *http.Client

	// Provider replaces the default Firebase provider. Template and image
	// generation are available only when it also implements
	// ai.TemplateProvider or ai.ImageProvider.
	Provider ai.Provider

	// Observer enables spans, metrics and logs for every call.
	Observer observability.Provider

	// Middlewares wrap every generation, the first entry outermost.
	Middlewares []MiddlewareConfig

	// Transport builds the socket used by each live session. Nil selects a
	// gorilla/websocket transport.
	Transport func() live.Transport
}

// WithHTTPClient sets the HTTP client of the default provider.
func WithHTTPClient(httpClient *http.Client) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.HTTPClient = httpClient
	}
}

// WithProvider replaces the default Firebase provider.
func WithProvider(provider ai.Provider) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Provider = provider
	}
}

// WithObserver enables observability. The observability middleware is put in
// front of every other middleware.
func WithObserver(observer observability.Provider) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Observer = observer
	}
}

// WithMiddleware appends middlewares to the chain.
func WithMiddleware(middlewares ...MiddlewareConfig) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Middlewares = append(o.Middlewares, middlewares...)
	}
}

// WithTransport sets the factory of live session transports.
func WithTransport(factory func() live.Transport) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Transport = factory
	}
}

// New validates settings and creates a client.
//
// Example:
//
//	c, err := client.New(ai.Settings{
//	    APIKey:    os.Getenv("FIREBASE_API_KEY"),
//	    ProjectID: "my-project",
//	    Backend:   ai.BackendGoogleAI,
//	}, client.WithMiddleware(middleware.NewRetryMiddleware(middleware.RetryConfig{})))
func New(settings ai.Settings, opts ...func(*ClientOptions)) (*Client, error) {
	options := &ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	for i, mw := range options.Middlewares {
		if mw.Send == nil {
			return nil, fmt.Errorf("middleware at index %d has a nil Send function", i)
		}
	}

	provider := options.Provider
	if provider == nil {
		firebaseClient, err := firebase.New(settings, options.HTTPClient)
		if err != nil {
			return nil, err
		}
		provider = firebaseClient
	}

	middlewares := options.Middlewares
	if options.Observer != nil {
		middlewares = append([]MiddlewareConfig{NewObservabilityMiddleware(options.Observer, settings.Backend)}, middlewares...)
	}

	newTransport := options.Transport
	if newTransport == nil {
		newTransport = func() live.Transport { return ws.New(nil) }
	}

	c := &Client{
		settings:     settings,
		provider:     provider,
		observer:     options.Observer,
		newTransport: newTransport,
		send:         buildSendChain(provider, middlewares),
		stream:       buildStreamChain(provider, middlewares),
	}
	if templates, ok := provider.(ai.TemplateProvider); ok {
		c.templates = templates
	}
	if images, ok := provider.(ai.ImageProvider); ok {
		c.images = images
	}
	return c, nil
}

// Settings returns the validated settings, defaults filled.
func (c *Client) Settings() ai.Settings {
	return c.settings
}

// startSpan opens a span for calls that bypass the generation chain. The
// returned function ends it with the outcome. Without an observer both are
// no-ops.
func (c *Client) startSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, func(error)) {
	if c.observer == nil {
		return ctx, func(error) {}
	}

	attrs = append(attrs, observability.String(observability.AttrBackend, string(c.settings.Backend)))
	ctx, span := c.observer.StartSpan(ctx, name, attrs...)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, c.observer)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		} else {
			span.SetStatus(observability.StatusOK, "success")
		}
		span.End()
	}
}
