package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/leofalp/fireai/core/cost"
	"github.com/leofalp/fireai/internal/utils"
	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/observability"
)

// NewObservabilityMiddleware creates a MiddlewareConfig that opens a span,
// records request metrics and logs the outcome of every generation.
//
// The span and the observer are put in the context before calling next, so
// the HTTP pipeline attaches its request events to the same span. For streams
// the outcome is recorded once, when the frame iterator finishes or the
// aggregated response is first obtained, whichever comes first.
//
// [New] prepends it to the chain when [WithObserver] is given, so it sees the
// final outcome after retries.
func NewObservabilityMiddleware(observer observability.Provider, backend ai.Backend) MiddlewareConfig {
	return MiddlewareConfig{
		Send:   buildObsSend(observer, backend),
		Stream: buildObsStream(observer, backend),
	}
}

func buildObsSend(observer observability.Provider, backend ai.Backend) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, call Call) (*ai.EnhancedResponse, error) {
			ctx, span := startCallSpan(ctx, observer, observability.SpanGenerateContent, backend, call)
			observer.Debug(ctx, "generate content",
				observability.String(observability.AttrModel, call.Model),
				observability.Int(observability.AttrRequestContents, len(call.Request.Contents)),
			)

			start := time.Now()
			response, err := next(ctx, call)
			if err != nil {
				recordObsFailure(ctx, span, observer, err, time.Since(start), call.Model, "generate content failed")
				return nil, err
			}

			recordObsSuccess(ctx, span, observer, response, time.Since(start), call.Model, "generate content completed")
			return response, nil
		}
	}
}

func buildObsStream(observer observability.Provider, backend ai.Backend) StreamMiddleware {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, call Call) (*ai.GenerateContentStream, error) {
			ctx, span := startCallSpan(ctx, observer, observability.SpanStreamGenerateContent, backend, call)
			observer.Debug(ctx, "stream generate content",
				observability.String(observability.AttrModel, call.Model),
				observability.Int(observability.AttrRequestContents, len(call.Request.Contents)),
			)

			start := time.Now()
			stream, err := next(ctx, call)
			if err != nil {
				recordObsFailure(ctx, span, observer, err, time.Since(start), call.Model, "stream generate content failed")
				return nil, err
			}

			return wrapStreamWithObservability(ctx, stream, span, observer, start, call.Model), nil
		}
	}
}

func startCallSpan(ctx context.Context, observer observability.Provider, name string, backend ai.Backend, call Call) (context.Context, observability.Span) {
	ctx, span := observer.StartSpan(ctx, name,
		observability.String(observability.AttrModel, call.Model),
		observability.String(observability.AttrBackend, string(backend)),
	)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, observer)
	return ctx, span
}

// wrapStreamWithObservability returns a stream with the same two views as
// stream. The first terminal outcome seen on either view is recorded.
func wrapStreamWithObservability(
	ctx context.Context,
	stream *ai.GenerateContentStream,
	span observability.Span,
	observer observability.Provider,
	start time.Time,
	model string,
) *ai.GenerateContentStream {
	var once sync.Once
	record := func(fn func()) { once.Do(fn) }

	iterator := func(yield func(*ai.EnhancedResponse, error) bool) {
		frames := 0
		var last *ai.EnhancedResponse

		for chunk, err := range stream.Iter() {
			if err != nil {
				record(func() {
					span.SetAttributes(observability.Int(observability.AttrStreamFrames, frames))
					recordObsFailure(ctx, span, observer, err, time.Since(start), model, "stream generate content failed")
				})
				yield(nil, err)
				return
			}

			frames++
			last = chunk
			if !yield(chunk, nil) {
				record(func() {
					span.SetStatus(observability.StatusOK, "stream abandoned")
					span.End()
					observer.Info(ctx, "stream generate content abandoned",
						observability.String(observability.AttrModel, model),
						observability.Int(observability.AttrStreamFrames, frames),
						observability.Duration(observability.AttrDuration, time.Since(start)),
					)
				})
				return
			}
		}

		record(func() {
			span.SetAttributes(observability.Int(observability.AttrStreamFrames, frames))
			recordObsSuccess(ctx, span, observer, last, time.Since(start), model, "stream generate content completed")
		})
	}

	response := func(responseCtx context.Context) (*ai.EnhancedResponse, error) {
		aggregated, err := stream.Response(responseCtx)
		if err != nil && responseCtx.Err() != nil {
			// The caller stopped waiting; the stream itself has not ended.
			return aggregated, err
		}
		record(func() {
			if err != nil {
				recordObsFailure(ctx, span, observer, err, time.Since(start), model, "stream generate content failed")
				return
			}
			recordObsSuccess(ctx, span, observer, aggregated, time.Since(start), model, "stream generate content completed")
		})
		return aggregated, err
	}

	return ai.NewGenerateContentStream(iterator, response)
}

func recordObsFailure(
	ctx context.Context,
	span observability.Span,
	observer observability.Provider,
	err error,
	elapsed time.Duration,
	model string,
	message string,
) {
	span.RecordError(err)
	span.SetStatus(observability.StatusError, message)
	span.End()

	attrs := []observability.Attribute{
		observability.Error(err),
		observability.Duration(observability.AttrDuration, elapsed),
		observability.String(observability.AttrModel, model),
	}
	if code := errorCode(err); code != "" {
		attrs = append(attrs, observability.String(observability.AttrErrorCode, code))
	}
	observer.Error(ctx, message, attrs...)

	observer.Counter(observability.MetricRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "error"),
		observability.String(observability.AttrModel, model),
	)
	observer.Counter(observability.MetricRequestErrors).Add(ctx, 1,
		observability.String(observability.AttrModel, model),
		observability.String(observability.AttrErrorCode, errorCode(err)),
	)
}

// recordObsSuccess writes the duration histogram, the request and token
// counters, the span attributes and an info log, then ends the span. response
// may be nil for a stream that produced no frame.
func recordObsSuccess(
	ctx context.Context,
	span observability.Span,
	observer observability.Provider,
	response *ai.EnhancedResponse,
	elapsed time.Duration,
	model string,
	message string,
) {
	observer.Histogram(observability.MetricRequestDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrModel, model),
	)
	observer.Counter(observability.MetricRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "success"),
		observability.String(observability.AttrModel, model),
	)

	logAttrs := []observability.Attribute{
		observability.String(observability.AttrModel, model),
		observability.Duration(observability.AttrDuration, elapsed),
	}

	if response != nil {
		logAttrs = append(logAttrs, observability.Int(observability.AttrCandidateCount, len(response.Candidates)))
		if len(response.Candidates) > 0 && response.Candidates[0].FinishReason != "" {
			finishReason := response.Candidates[0].FinishReason
			span.SetAttributes(observability.String(observability.AttrFinishReason, finishReason))
			logAttrs = append(logAttrs, observability.String(observability.AttrFinishReason, finishReason))
		}

		if usage := response.UsageMetadata; usage != nil {
			observer.Counter(observability.MetricTokensTotal).Add(ctx, int64(usage.TotalTokenCount),
				observability.String(observability.AttrModel, model),
			)
			observer.Counter(observability.MetricTokensPrompt).Add(ctx, int64(usage.PromptTokenCount),
				observability.String(observability.AttrModel, model),
			)

			usageAttrs := []observability.Attribute{
				observability.Int(observability.AttrTokensPrompt, usage.PromptTokenCount),
				observability.Int(observability.AttrTokensCandidates, usage.CandidatesTokenCount),
				observability.Int(observability.AttrTokensThoughts, usage.ThoughtsTokenCount),
				observability.Int(observability.AttrTokensTotal, usage.TotalTokenCount),
			}
			if estimate, ok := cost.Estimate(model, usage); ok {
				observer.Histogram(observability.MetricCostEstimate).Record(ctx, estimate.TotalCost,
					observability.String(observability.AttrModel, model),
				)
				usageAttrs = append(usageAttrs, observability.Float64(observability.AttrCostEstimate, estimate.TotalCost))
			}
			span.SetAttributes(usageAttrs...)
			logAttrs = append(logAttrs, usageAttrs...)
		}

		if text, err := response.Text(); err == nil && text != "" {
			logAttrs = append(logAttrs, observability.String("response", utils.TruncateString(text, 100)))
		}
	}

	observer.Info(ctx, message, logAttrs...)

	span.SetStatus(observability.StatusOK, "success")
	span.End()
}

func errorCode(err error) string {
	var aiErr *ai.Error
	if errors.As(err, &aiErr) {
		return string(aiErr.Code)
	}
	return ""
}
