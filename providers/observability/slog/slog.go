package slog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/leofalp/fireai/providers/observability"
)

// Observer implements observability.Provider on top of a *slog.Logger.
// Spans become start/end log records, metrics are kept in memory and logged
// on every update.
type Observer struct {
	logger  *slog.Logger
	metrics *metricsStore
}

// New creates an observer. A nil logger selects slog.Default().
func New(logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{
		logger:  logger,
		metrics: newMetricsStore(),
	}
}

// NewFromEnv creates an observer writing text records to w (stderr when nil)
// at the level configured by FIREAI_LOG_LEVEL or LOG_LEVEL.
func NewFromEnv(w io.Writer) *Observer {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: LevelFromEnv()})
	return New(slog.New(handler))
}

var _ observability.Provider = (*Observer)(nil)

// Logger returns the underlying logger.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

// --- TRACING ---

func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:      name,
		startTime: time.Now(),
		logger:    o.logger,
		attrs:     attrs,
	}

	logAttrs := append([]slog.Attr{
		slog.String("span", name),
		slog.String("event", "span.start"),
	}, toSlogAttrs(attrs)...)
	o.logger.LogAttrs(ctx, slog.LevelDebug, "Span started", logAttrs...)

	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	name      string
	startTime time.Time
	logger    *slog.Logger
	attrs     []observability.Attribute
	status    observability.StatusCode
	ended     bool
	mu        sync.Mutex
}

// End logs the span with its duration. Spans that ended in error are logged
// at error level; repeated calls are ignored.
func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	level := slog.LevelInfo
	if s.status == observability.StatusError {
		level = slog.LevelError
	}

	logAttrs := append([]slog.Attr{
		slog.String("span", s.name),
		slog.String("event", "span.end"),
		slog.Duration(observability.AttrDuration, time.Since(s.startTime)),
	}, toSlogAttrs(s.attrs)...)
	s.logger.LogAttrs(context.Background(), level, "Span ended", logAttrs...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = code
	var statusStr string
	switch code {
	case observability.StatusOK:
		statusStr = "ok"
	case observability.StatusError:
		statusStr = "error"
	default:
		statusStr = "unset"
	}

	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, statusStr))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs = append(s.attrs, observability.Error(err))
	s.logger.LogAttrs(context.Background(), slog.LevelError, "Span error",
		slog.String("span", s.name),
		slog.String("event", "error"),
		slog.String(observability.AttrError, err.Error()),
	)
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	logAttrs := append([]slog.Attr{
		slog.String("span", s.name),
		slog.String("event", name),
	}, toSlogAttrs(attrs)...)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span event", logAttrs...)
}

// --- METRICS ---

func (o *Observer) Counter(name string) observability.Counter {
	return o.metrics.getCounter(name, o.logger)
}

func (o *Observer) Histogram(name string) observability.Histogram {
	return o.metrics.getHistogram(name, o.logger)
}

type metricsStore struct {
	mu         sync.Mutex
	counters   map[string]*slogCounter
	histograms map[string]*slogHistogram
}

func newMetricsStore() *metricsStore {
	return &metricsStore{
		counters:   make(map[string]*slogCounter),
		histograms: make(map[string]*slogHistogram),
	}
}

func (m *metricsStore) getCounter(name string, logger *slog.Logger) *slogCounter {
	m.mu.Lock()
	defer m.mu.Unlock()

	counter, exists := m.counters[name]
	if !exists {
		counter = &slogCounter{name: name, logger: logger}
		m.counters[name] = counter
	}
	return counter
}

func (m *metricsStore) getHistogram(name string, logger *slog.Logger) *slogHistogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	histogram, exists := m.histograms[name]
	if !exists {
		histogram = &slogHistogram{name: name, logger: logger}
		m.histograms[name] = histogram
	}
	return histogram
}

type slogCounter struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	value  int64
}

// Value returns the accumulated total.
func (c *slogCounter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	currentValue := c.value
	c.mu.Unlock()

	logAttrs := append([]slog.Attr{
		slog.String("metric", c.name),
		slog.String("type", "counter"),
		slog.Int64("value", currentValue),
		slog.Int64("delta", value),
	}, toSlogAttrs(attrs)...)
	c.logger.LogAttrs(ctx, slog.LevelDebug, "Counter", logAttrs...)
}

type slogHistogram struct {
	name   string
	logger *slog.Logger
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	logAttrs := append([]slog.Attr{
		slog.String("metric", h.name),
		slog.String("type", "histogram"),
		slog.Float64("value", value),
	}, toSlogAttrs(attrs)...)
	h.logger.LogAttrs(ctx, slog.LevelDebug, "Histogram", logAttrs...)
}

// --- LOGGING ---

// LevelTrace sits below debug and is normally filtered out.
const LevelTrace = slog.LevelDebug - 4

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, LevelTrace, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelWarn, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelError, msg, toSlogAttrs(attrs)...)
}

func toSlogAttrs(attrs []observability.Attribute) []slog.Attr {
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	return logAttrs
}
