// Package observability defines the tracing, metrics and logging interfaces
// used across fireai, and the attribute and span names they record.
//
// A [Provider] and the current [Span] travel in a [context.Context]
// ([ContextWithObserver], [ContextWithSpan]); the HTTP pipeline and the live
// session pick them up from there, so nothing below the client needs to be
// handed an observer explicitly. The slog subpackage provides a Provider
// backed by log/slog.
package observability
