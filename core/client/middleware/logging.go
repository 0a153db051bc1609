package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leofalp/fireai/core/client"
	"github.com/leofalp/fireai/internal/utils"
	"github.com/leofalp/fireai/providers/ai"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs the model, the duration and the token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the content count and the finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the last request turn and the response text, each
	// truncated to 500 characters.
	//
	// WARNING: DO NOT use LogLevelVerbose in production. Prompts and replies
	// may contain personal data or secrets.
	LogLevelVerbose
)

// truncateLen is the maximum content length included in verbose log output.
const truncateLen = 500

// NewLoggingMiddleware logs every generation before and after the provider
// call. For streams the completion entry is written once the stream has
// ended, from its aggregated response.
//
// The logger must not be nil; use slog.Default() when none is configured.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send:   buildSendLogging(logger, level),
		Stream: buildStreamLogging(logger, level),
	}
}

func buildSendLogging(logger *slog.Logger, level LogLevel) client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, call client.Call) (*ai.EnhancedResponse, error) {
			logger.InfoContext(ctx, "generate content", buildRequestAttrs(call, level)...)

			start := time.Now()
			response, err := next(ctx, call)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "generate content failed",
					slog.String("model", call.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "generate content completed",
				buildResponseAttrs(call.Model, response, elapsed, level)...,
			)
			return response, nil
		}
	}
}

func buildStreamLogging(logger *slog.Logger, level LogLevel) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, call client.Call) (*ai.GenerateContentStream, error) {
			logger.InfoContext(ctx, "stream generate content", buildRequestAttrs(call, level)...)

			start := time.Now()
			stream, err := next(ctx, call)
			if err != nil {
				logger.ErrorContext(ctx, "stream generate content failed",
					slog.String("model", call.Model),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			return wrapStreamWithLogging(ctx, stream, logger, call.Model, level, start), nil
		}
	}
}

// wrapStreamWithLogging logs the outcome of stream once, the first time the
// frame iterator finishes or the aggregated response is obtained.
func wrapStreamWithLogging(
	ctx context.Context,
	stream *ai.GenerateContentStream,
	logger *slog.Logger,
	model string,
	level LogLevel,
	start time.Time,
) *ai.GenerateContentStream {
	var once sync.Once
	logOutcome := func(response *ai.EnhancedResponse, err error) {
		once.Do(func() {
			elapsed := time.Since(start)
			if err != nil {
				logger.ErrorContext(ctx, "stream generate content failed",
					slog.String("model", model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return
			}
			logger.InfoContext(ctx, "stream generate content completed",
				buildResponseAttrs(model, response, elapsed, level)...,
			)
		})
	}

	iterator := func(yield func(*ai.EnhancedResponse, error) bool) {
		var last *ai.EnhancedResponse
		for chunk, err := range stream.Iter() {
			if err != nil {
				logOutcome(nil, err)
				yield(nil, err)
				return
			}
			last = chunk
			if !yield(chunk, nil) {
				return
			}
		}
		logOutcome(last, nil)
	}

	response := func(responseCtx context.Context) (*ai.EnhancedResponse, error) {
		aggregated, err := stream.Response(responseCtx)
		if err == nil || responseCtx.Err() == nil {
			logOutcome(aggregated, err)
		}
		return aggregated, err
	}

	return ai.NewGenerateContentStream(iterator, response)
}

func buildRequestAttrs(call client.Call, level LogLevel) []any {
	attrs := []any{
		slog.String("model", call.Model),
	}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("content_count", len(call.Request.Contents)))
	}

	if level >= LogLevelVerbose && len(call.Request.Contents) > 0 {
		last := call.Request.Contents[len(call.Request.Contents)-1]
		attrs = append(attrs,
			slog.String("last_content_role", last.Role),
			slog.String("last_content_text", utils.TruncateString(contentText(last), truncateLen)),
		)
	}

	return attrs
}

// buildResponseAttrs returns the completion attributes. response may be nil
// for a stream without frames.
func buildResponseAttrs(model string, response *ai.EnhancedResponse, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", model),
		slog.Duration("duration", elapsed),
	}
	if response == nil {
		return attrs
	}

	if usage := response.UsageMetadata; usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", usage.PromptTokenCount),
			slog.Int("candidates_tokens", usage.CandidatesTokenCount),
			slog.Int("total_tokens", usage.TotalTokenCount),
		)
	}

	if level >= LogLevelStandard && len(response.Candidates) > 0 && response.Candidates[0].FinishReason != "" {
		attrs = append(attrs, slog.String("finish_reason", response.Candidates[0].FinishReason))
	}

	if level >= LogLevelVerbose {
		if text, err := response.Text(); err == nil && text != "" {
			attrs = append(attrs, slog.String("response_text", utils.TruncateString(text, truncateLen)))
		}
	}

	return attrs
}

func contentText(content ai.Content) string {
	var text string
	for _, part := range content.Parts {
		if textPart, ok := part.(ai.TextPart); ok {
			text += textPart.Text
		}
	}
	return text
}
