package client

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/observability"
)

// ChatSession keeps the turns of a multi-turn conversation and sends them
// with every message. Sends are serialised: a message waits until the
// previous reply, streamed or not, has been recorded.
type ChatSession struct {
	model *GenerativeModel

	mu      sync.Mutex
	history []ai.Content
}

// History returns a copy of the recorded turns.
func (s *ChatSession) History() []ai.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// SendMessage sends parts as the next turn. The turn and the reply are
// appended to the history only when the reply has a usable first candidate;
// a failed or blocked exchange leaves the history untouched.
func (s *ChatSession) SendMessage(ctx context.Context, parts ...ai.Part) (*ai.EnhancedResponse, error) {
	content, err := ai.FormatNewContent(parts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, finish := s.model.client.startSpan(ctx, observability.SpanChatSendMessage,
		observability.String(observability.AttrModel, s.model.model),
		observability.Int(observability.AttrRequestContents, len(s.history)+1),
	)

	response, err := s.model.GenerateContentWithRequest(ctx, s.request(content))
	finish(err)
	if err != nil {
		return nil, err
	}

	s.record(content, response)
	return response, nil
}

// SendMessageStream sends parts as the next turn and streams the reply. The
// history is updated once the stream has ended, from the aggregated reply;
// until then further sends wait.
func (s *ChatSession) SendMessageStream(ctx context.Context, parts ...ai.Part) (*ai.GenerateContentStream, error) {
	content, err := ai.FormatNewContent(parts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()

	ctx, finish := s.model.client.startSpan(ctx, observability.SpanChatSendMessage,
		observability.String(observability.AttrModel, s.model.model),
		observability.Int(observability.AttrRequestContents, len(s.history)+1),
	)

	stream, err := s.model.GenerateContentStreamWithRequest(ctx, s.request(content))
	if err != nil {
		finish(err)
		s.mu.Unlock()
		return nil, err
	}

	go func() {
		defer s.mu.Unlock()

		response, err := stream.Response(ctx)
		finish(err)
		if err != nil {
			slog.ErrorContext(ctx, "sendMessageStream() failed, chat history not updated", "error", err.Error())
			return
		}
		s.record(content, response)
	}()

	return stream, nil
}

// request builds the outgoing request from the history and the new turn.
// Callers hold mu.
func (s *ChatSession) request(content ai.Content) ai.GenerateContentRequest {
	contents := make([]ai.Content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, content)
	return ai.GenerateContentRequest{Contents: contents}
}

// record appends the exchange when the reply is usable. Callers hold mu.
func (s *ChatSession) record(content ai.Content, response *ai.EnhancedResponse) {
	if len(response.Candidates) > 0 {
		candidate := response.Candidates[0]
		if candidate.Content != nil && len(candidate.Content.Parts) > 0 && !ai.HadBadFinishReason(candidate) {
			reply := *candidate.Content
			if reply.Role == "" {
				reply.Role = ai.RoleModel
			}
			s.history = append(s.history, content, reply)
			return
		}
	}

	message := ai.FormatBlockErrorMessage(response.GenerateContentResponse)
	if message == "" {
		message = "The response has no content"
	}
	slog.Warn("sendMessage() was unsuccessful. " + message + ". Inspect response object for details.")
}
