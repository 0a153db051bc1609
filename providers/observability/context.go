package observability

import "context"

type spanContextKey struct{}

type observerContextKey struct{}

// SpanFromContext returns the span stored in ctx, or nil.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanContextKey{}).(Span)
	return span
}

// ContextWithSpan attaches span to ctx. A nil ctx is treated as Background.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanContextKey{}, span)
}

// ObserverFromContext returns the provider stored in ctx, or nil.
func ObserverFromContext(ctx context.Context) Provider {
	if ctx == nil {
		return nil
	}
	observer, _ := ctx.Value(observerContextKey{}).(Provider)
	return observer
}

// ContextWithObserver attaches observer to ctx so that lower layers (the HTTP
// pipeline, the live session) can log and count without being handed it.
func ContextWithObserver(ctx context.Context, observer Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, observerContextKey{}, observer)
}
