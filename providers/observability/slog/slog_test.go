package slog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/leofalp/fireai/providers/observability"
)

func newBufferedObserver(level slog.Level) (*Observer, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level}))
	return New(logger), &buf
}

// TestNew_NilLoggerUsesDefault verifies that New never returns an observer
// without a logger.
func TestNew_NilLoggerUsesDefault(t *testing.T) {
	observer := New(nil)
	if observer.Logger() == nil {
		t.Fatal("expected default logger, got nil")
	}
}

// TestStartSpan_StoresSpanInContext verifies that the returned context carries
// the new span so lower layers can add events to it.
func TestStartSpan_StoresSpanInContext(t *testing.T) {
	observer, buf := newBufferedObserver(slog.LevelDebug)

	ctx, span := observer.StartSpan(context.Background(), observability.SpanGenerateContent,
		observability.String(observability.AttrModel, "publishers/google/models/gemini"),
	)

	if observability.SpanFromContext(ctx) != span {
		t.Fatal("span not stored in returned context")
	}
	output := buf.String()
	if !strings.Contains(output, observability.SpanGenerateContent) || !strings.Contains(output, "span.start") {
		t.Errorf("expected span start record, got: %s", output)
	}
}

// TestSpan_EndLogsAttributesOnce verifies that End logs accumulated attributes
// and that a second End is a no-op.
func TestSpan_EndLogsAttributesOnce(t *testing.T) {
	observer, buf := newBufferedObserver(slog.LevelInfo)

	_, span := observer.StartSpan(context.Background(), "op")
	span.SetAttributes(observability.Int(observability.AttrCandidateCount, 1))
	span.End()
	span.End()

	output := buf.String()
	if strings.Count(output, "span.end") != 1 {
		t.Errorf("expected exactly one span.end record, got: %s", output)
	}
	if !strings.Contains(output, observability.AttrCandidateCount+"=1") {
		t.Errorf("expected attribute in span end record, got: %s", output)
	}
}

// TestSpan_ErrorStatusEndsAtErrorLevel verifies the level escalation for
// failed spans and that RecordError logs immediately.
func TestSpan_ErrorStatusEndsAtErrorLevel(t *testing.T) {
	observer, buf := newBufferedObserver(slog.LevelInfo)

	_, span := observer.StartSpan(context.Background(), "op")
	span.RecordError(errors.New("upstream refused"))
	span.SetStatus(observability.StatusError, "fetch failed")
	span.End()

	output := buf.String()
	if !strings.Contains(output, "upstream refused") {
		t.Errorf("expected recorded error in output, got: %s", output)
	}
	if !strings.Contains(output, `level=ERROR msg="Span ended"`) {
		t.Errorf("expected error-level span end, got: %s", output)
	}
	if !strings.Contains(output, "status_description=\"fetch failed\"") {
		t.Errorf("expected status description, got: %s", output)
	}
}

// TestSpan_RecordErrorNil verifies that a nil error is ignored.
func TestSpan_RecordErrorNil(t *testing.T) {
	observer, buf := newBufferedObserver(slog.LevelDebug)
	_, span := observer.StartSpan(context.Background(), "op")
	buf.Reset()

	span.RecordError(nil)

	if buf.Len() != 0 {
		t.Errorf("expected no output, got: %s", buf.String())
	}
}

// TestCounter_AccumulatesAndIsShared verifies that the same name returns the
// same instrument and that values accumulate across calls.
func TestCounter_AccumulatesAndIsShared(t *testing.T) {
	observer, _ := newBufferedObserver(slog.LevelDebug)
	ctx := context.Background()

	observer.Counter(observability.MetricRequestCount).Add(ctx, 2)
	observer.Counter(observability.MetricRequestCount).Add(ctx, 3)

	counter := observer.Counter(observability.MetricRequestCount).(*slogCounter)
	if counter.Value() != 5 {
		t.Errorf("counter value = %d, want 5", counter.Value())
	}
}

// TestCounter_Concurrent adds from many goroutines.
func TestCounter_Concurrent(t *testing.T) {
	observer, _ := newBufferedObserver(slog.LevelError)
	ctx := context.Background()

	var waitGroup sync.WaitGroup
	for range 100 {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			observer.Counter(observability.MetricTokensTotal).Add(ctx, 1)
		}()
	}
	waitGroup.Wait()

	counter := observer.Counter(observability.MetricTokensTotal).(*slogCounter)
	if counter.Value() != 100 {
		t.Errorf("counter value = %d, want 100", counter.Value())
	}
}

// TestHistogram_Record verifies that a recorded value is logged.
func TestHistogram_Record(t *testing.T) {
	observer, buf := newBufferedObserver(slog.LevelDebug)

	observer.Histogram(observability.MetricRequestDuration).Record(context.Background(), 1.5)

	if !strings.Contains(buf.String(), "value=1.5") {
		t.Errorf("expected histogram value, got: %s", buf.String())
	}
}

// TestLogging_FiltersByLevel verifies that records below the handler level
// are dropped and the rest carry their attributes.
func TestLogging_FiltersByLevel(t *testing.T) {
	observer, buf := newBufferedObserver(slog.LevelWarn)
	ctx := context.Background()

	observer.Trace(ctx, "trace message")
	observer.Debug(ctx, "debug message")
	observer.Info(ctx, "info message")
	observer.Warn(ctx, "warn message", observability.String(observability.AttrTask, "countTokens"))
	observer.Error(ctx, "error message")

	output := buf.String()
	for _, dropped := range []string{"trace message", "debug message", "info message"} {
		if strings.Contains(output, dropped) {
			t.Errorf("expected %q to be filtered, got: %s", dropped, output)
		}
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "genai.task=countTokens") {
		t.Errorf("expected warn record with attribute, got: %s", output)
	}
	if !strings.Contains(output, "error message") {
		t.Errorf("expected error record, got: %s", output)
	}
}

// TestParseLevel covers every accepted spelling and the unknown case.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
	}
	for _, test := range tests {
		got, err := ParseLevel(test.input)
		if err != nil || got != test.want {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v", test.input, got, err, test.want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

// TestLevelFromEnv_Precedence verifies FIREAI_LOG_LEVEL wins over
// LOG_LEVEL and that unknown values fall back to INFO.
func TestLevelFromEnv_Precedence(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogLevelFallback, "")
	if got := LevelFromEnv(); got != slog.LevelInfo {
		t.Errorf("default level = %v, want INFO", got)
	}

	t.Setenv(EnvLogLevelFallback, "error")
	if got := LevelFromEnv(); got != slog.LevelError {
		t.Errorf("LOG_LEVEL level = %v, want ERROR", got)
	}

	t.Setenv(EnvLogLevel, "debug")
	if got := LevelFromEnv(); got != slog.LevelDebug {
		t.Errorf("FIREAI_LOG_LEVEL level = %v, want DEBUG", got)
	}

	t.Setenv(EnvLogLevel, "loud")
	if got := LevelFromEnv(); got != slog.LevelInfo {
		t.Errorf("unknown level = %v, want INFO", got)
	}
}
