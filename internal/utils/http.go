package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/fireai/providers/observability"
)

// maxResponseBodySize caps how much of a unary or error response body is
// read into memory (10 MB).
const maxResponseBodySize int64 = 10 * 1024 * 1024

// HeaderOption is one request header.
type HeaderOption struct {
	Key   string
	Value string
}

// PostJSON sends body as a JSON POST request and returns the response with
// its body still open, whatever the status code. The caller owns the body.
//
// Span events http.request.prepared, http.request.error and
// http.response.received are added to the span found in ctx, if any.
func PostJSON(ctx context.Context, client *http.Client, url string, body []byte, headers ...HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPRequestPrepared,
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(body)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent(observability.EventHTTPRequestError,
				observability.Error(err),
				observability.Duration(observability.AttrHTTPDuration, requestDuration),
			)
		}
		return nil, err
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPResponseReceived,
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Duration(observability.AttrHTTPDuration, requestDuration),
		)
	}

	return res, nil
}

// ReadBody reads at most maxResponseBodySize bytes from body.
func ReadBody(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, maxResponseBodySize))
}

// CloseWithLog closes closer and logs a failure instead of returning it, so
// that a close error never shadows the error a caller is already returning.
func CloseWithLog(closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}
