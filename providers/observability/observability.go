package observability

import (
	"context"
	"time"
)

// Provider bundles tracing, metrics and logging behind one injectable value.
type Provider interface {
	Tracer
	Metrics
	Logger
}

// --- TRACING ---

// Tracer starts spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one unit of work: a unary call, a stream, a live session.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
	AddEvent(name string, attrs ...Attribute)
}

// StatusCode is the outcome recorded on a span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// --- METRICS ---

// Metrics hands out named instruments.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Counter is a monotonically increasing metric.
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Histogram records a distribution of values.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// --- LOGGING ---

// Logger is a leveled structured logger.
type Logger interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// --- ATTRIBUTES ---

// Attribute is a key-value pair attached to spans, metrics and log records.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func StringSlice(key string, value []string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error records err under AttrError. A nil error yields an empty value.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: AttrError, Value: ""}
	}
	return Attribute{Key: AttrError, Value: err.Error()}
}
