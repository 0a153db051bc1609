package firebase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/fireai/providers/ai"
)

// sseServer writes frames one by one, flushing after each.
func sseServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") != "sse" {
			t.Errorf("stream request without alt=sse: %s", r.URL)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			_, _ = w.Write([]byte(frame))
			flusher.Flush()
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func collect(t *testing.T, stream *ai.GenerateContentStream) ([]string, error) {
	t.Helper()
	var texts []string
	for chunk, err := range stream.Iter() {
		if err != nil {
			return texts, err
		}
		text, textErr := chunk.Text()
		if textErr != nil {
			t.Fatalf("Text() error: %v", textErr)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// TestGenerateContentStream_IterAndAggregate verifies that the iterator skips
// frames without usable data and that the aggregate covers every frame.
func TestGenerateContentStream_IterAndAggregate(t *testing.T) {
	server := sseServer(t,
		"data: {\"candidates\":[{\"index\":0,\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"Hel\"}]}}]}\r\n\r\n",
		"data: {\"usageMetadata\":{\"totalTokenCount\":5}}\n\n",
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"\"}]}}]}\r\r",
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"lo\"}]},\"finishReason\":\"STOP\"}]}\n\n",
	)
	client := newTestClient(t, testSettings(ai.BackendVertexAI))

	stream, err := client.GenerateContentStream(context.Background(), "m", ai.GenerateContentRequest{}, ai.RequestOptions{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("GenerateContentStream() error: %v", err)
	}

	texts, err := collect(t, stream)
	if err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	if strings.Join(texts, "|") != "Hel||lo" {
		t.Errorf("chunks = %q", texts)
	}

	response, err := stream.Response(context.Background())
	if err != nil {
		t.Fatalf("Response() error: %v", err)
	}
	text, _ := response.Text()
	if text != "Hello" {
		t.Errorf("aggregated text = %q", text)
	}
	if response.UsageMetadata == nil || response.UsageMetadata.TotalTokenCount != 5 {
		t.Errorf("usage = %+v", response.UsageMetadata)
	}
	if len(response.Candidates[0].Content.Parts) != 2 {
		t.Errorf("parts = %d, want empty text dropped", len(response.Candidates[0].Content.Parts))
	}
	if response.Candidates[0].FinishReason != ai.FinishReasonStop {
		t.Errorf("finish reason = %q", response.Candidates[0].FinishReason)
	}
}

// TestGenerateContentStream_EmptyPartsList verifies that a present but empty
// parts list is yielded while content without parts is skipped.
func TestGenerateContentStream_EmptyPartsList(t *testing.T) {
	server := sseServer(t,
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\"}}]}\n\n",
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[]}}]}\n\n",
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"done\"}]}}]}\n\n",
	)
	client := newTestClient(t, testSettings(ai.BackendVertexAI))

	stream, err := client.GenerateContentStream(context.Background(), "m", ai.GenerateContentRequest{}, ai.RequestOptions{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("GenerateContentStream() error: %v", err)
	}

	texts, err := collect(t, stream)
	if err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	if len(texts) != 2 || texts[0] != "" || texts[1] != "done" {
		t.Errorf("chunks = %q, want [\"\" \"done\"]", texts)
	}
}

// TestGenerateContentStream_ResponseWithoutIterating verifies that the
// aggregate is available when the iterator is never used.
func TestGenerateContentStream_ResponseWithoutIterating(t *testing.T) {
	server := sseServer(t,
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"a\"}]}}]}\n\n",
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"b\"}]}}]}\n\n",
	)
	client := newTestClient(t, testSettings(ai.BackendVertexAI))

	stream, err := client.GenerateContentStream(context.Background(), "m", ai.GenerateContentRequest{}, ai.RequestOptions{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("GenerateContentStream() error: %v", err)
	}
	response, err := stream.Response(context.Background())
	if err != nil {
		t.Fatalf("Response() error: %v", err)
	}
	if text, _ := response.Text(); text != "ab" {
		t.Errorf("text = %q", text)
	}
}

// TestGenerateContentStream_EarlyBreak verifies that abandoning the iterator
// does not stop the aggregate.
func TestGenerateContentStream_EarlyBreak(t *testing.T) {
	server := sseServer(t,
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"one \"}]}}]}\n\n",
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"two \"}]}}]}\n\n",
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"three\"}]}}]}\n\n",
	)
	client := newTestClient(t, testSettings(ai.BackendVertexAI))

	stream, err := client.GenerateContentStream(context.Background(), "m", ai.GenerateContentRequest{}, ai.RequestOptions{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("GenerateContentStream() error: %v", err)
	}
	for range stream.Iter() {
		break
	}

	response, err := stream.Response(context.Background())
	if err != nil {
		t.Fatalf("Response() error: %v", err)
	}
	if text, _ := response.Text(); text != "one two three" {
		t.Errorf("text = %q", text)
	}
}

// TestGenerateContentStream_Empty verifies that a stream without frames
// aggregates to an empty response.
func TestGenerateContentStream_Empty(t *testing.T) {
	server := sseServer(t)
	client := newTestClient(t, testSettings(ai.BackendVertexAI))

	stream, err := client.GenerateContentStream(context.Background(), "m", ai.GenerateContentRequest{}, ai.RequestOptions{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("GenerateContentStream() error: %v", err)
	}
	texts, err := collect(t, stream)
	if err != nil || len(texts) != 0 {
		t.Errorf("iteration = %q, %v", texts, err)
	}
	response, err := stream.Response(context.Background())
	if err != nil {
		t.Fatalf("Response() error: %v", err)
	}
	if text, err := response.Text(); text != "" || err != nil {
		t.Errorf("Text() = %q, %v", text, err)
	}
}

// TestGenerateContentStream_ParseErrors verifies that malformed frames and
// truncated streams end both views with parse-failed.
func TestGenerateContentStream_ParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		frames []string
	}{
		{name: "invalid json", frames: []string{"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"ok\"}]}}]}\n\n", "data: {oops}\n\n"}},
		{name: "incomplete frame", frames: []string{"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"ok\"}]}}]}\n\n", "data: {\"candidates\":[]}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := sseServer(t, tt.frames...)
			client := newTestClient(t, testSettings(ai.BackendVertexAI))

			stream, err := client.GenerateContentStream(context.Background(), "m", ai.GenerateContentRequest{}, ai.RequestOptions{BaseURL: server.URL})
			if err != nil {
				t.Fatalf("GenerateContentStream() error: %v", err)
			}

			texts, err := collect(t, stream)
			if len(texts) != 1 || texts[0] != "ok" {
				t.Errorf("chunks before the error = %q", texts)
			}
			if !ai.IsCode(err, ai.ErrorCodeParseFailed) {
				t.Errorf("iteration error = %v, want parse-failed", err)
			}
			if _, err := stream.Response(context.Background()); !ai.IsCode(err, ai.ErrorCodeParseFailed) {
				t.Errorf("Response() error = %v, want parse-failed", err)
			}
		})
	}
}

// TestGenerateContentStream_GoogleAIFrames verifies that every frame goes
// through the Google AI response mapper.
func TestGenerateContentStream_GoogleAIFrames(t *testing.T) {
	server := sseServer(t,
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"x\"}]},\"citationMetadata\":{\"citationSources\":[{\"uri\":\"https://a.example\"}]}}]}\n\n",
		"data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"videoMetadata\":{}}]}}]}\n\n",
	)
	client := newTestClient(t, testSettings(ai.BackendGoogleAI))

	stream, err := client.GenerateContentStream(context.Background(), "models/m", ai.GenerateContentRequest{}, ai.RequestOptions{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("GenerateContentStream() error: %v", err)
	}

	var chunks int
	var streamErr error
	for chunk, err := range stream.Iter() {
		if err != nil {
			streamErr = err
			break
		}
		chunks++
		if chunk.Candidates[0].CitationMetadata.Citations[0].URI != "https://a.example" {
			t.Errorf("citations not mapped: %+v", chunk.Candidates[0].CitationMetadata)
		}
	}
	if chunks != 1 {
		t.Errorf("chunks = %d, want 1", chunks)
	}
	if !ai.IsCode(streamErr, ai.ErrorCodeUnsupported) {
		t.Errorf("error = %v, want unsupported", streamErr)
	}
}

// TestGenerateContentStream_PreStreamError verifies that HTTP failures are
// returned before a stream exists.
func TestGenerateContentStream_PreStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer server.Close()
	client := newTestClient(t, testSettings(ai.BackendVertexAI))

	stream, err := client.GenerateContentStream(context.Background(), "m", ai.GenerateContentRequest{}, ai.RequestOptions{BaseURL: server.URL})
	if stream != nil || !ai.IsCode(err, ai.ErrorCodeFetchError) {
		t.Errorf("GenerateContentStream() = %v, %v", stream, err)
	}
}

// TestGenerateContentStream_ResponseContext verifies that Response gives up
// when its context ends before the stream does.
func TestGenerateContentStream_ResponseContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"a\"}]}}]}\n\n"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, testSettings(ai.BackendVertexAI))
	stream, err := client.GenerateContentStream(context.Background(), "m", ai.GenerateContentRequest{}, ai.RequestOptions{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("GenerateContentStream() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := stream.Response(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Response() error = %v, want deadline exceeded", err)
	}
}

// TestTemplateGenerateContentStream verifies the template stream endpoint.
func TestTemplateGenerateContentStream(t *testing.T) {
	server := sseServer(t, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":\"hey\"}]}}]}\n\n")
	client := newTestClient(t, testSettings(ai.BackendGoogleAI))

	stream, err := client.TemplateGenerateContentStream(context.Background(), "greeting", map[string]any{"name": "Ada"}, ai.RequestOptions{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("TemplateGenerateContentStream() error: %v", err)
	}
	response, err := stream.Response(context.Background())
	if err != nil {
		t.Fatalf("Response() error: %v", err)
	}
	if text, _ := response.Text(); text != "hey" {
		t.Errorf("text = %q", text)
	}
}
