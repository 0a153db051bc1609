package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leofalp/fireai/providers/ai"
)

func userText(text string) ai.Content {
	return ai.Content{Role: ai.RoleUser, Parts: ai.Parts{ai.NewTextPart(text)}}
}

func modelText(text string) ai.Content {
	return ai.Content{Role: ai.RoleModel, Parts: ai.Parts{ai.NewTextPart(text)}}
}

// TestStartChat_ValidatesHistory verifies that malformed history is rejected
// with invalid-content.
func TestStartChat_ValidatesHistory(t *testing.T) {
	model := newTestModel(t, &fakeProvider{})

	tests := []struct {
		name    string
		history []ai.Content
		valid   bool
	}{
		{"empty", nil, true},
		{"alternating", []ai.Content{userText("hi"), modelText("hello")}, true},
		{"starts with model", []ai.Content{modelText("hello")}, false},
		{"two user turns", []ai.Content{userText("a"), userText("b")}, false},
		{"unknown role", []ai.Content{{Role: "robot", Parts: ai.Parts{ai.NewTextPart("x")}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.StartChat(tt.history...)
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !ai.IsCode(err, ai.ErrorCodeInvalidContent) {
				t.Errorf("expected invalid-content, got %v", err)
			}
		})
	}
}

// TestChatSession_SendMessageAppendsHistory verifies that each exchange is
// sent with the previous turns and then recorded.
func TestChatSession_SendMessageAppendsHistory(t *testing.T) {
	provider := &fakeProvider{responses: []*ai.GenerateContentResponse{textReply("first"), textReply("second")}}
	chat, err := newTestModel(t, provider).StartChat(userText("earlier"), modelText("noted"))
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}

	if _, err := chat.SendMessage(context.Background(), ai.NewTextPart("one")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	response, err := chat.SendMessage(context.Background(), ai.NewTextPart("two"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text, _ := response.Text(); text != "second" {
		t.Errorf("expected 'second', got %q", text)
	}

	if sent := provider.lastCall(t).request.Contents; len(sent) != 5 {
		t.Errorf("expected 5 contents in the second request, got %d", len(sent))
	}

	history := chat.History()
	if len(history) != 6 {
		t.Fatalf("expected 6 turns, got %d", len(history))
	}
	wantRoles := []string{ai.RoleUser, ai.RoleModel, ai.RoleUser, ai.RoleModel, ai.RoleUser, ai.RoleModel}
	for i, role := range wantRoles {
		if history[i].Role != role {
			t.Errorf("turn %d: expected role %q, got %q", i, role, history[i].Role)
		}
	}
}

// TestChatSession_BlockedReplyNotRecorded verifies that blocked or empty
// replies leave the history untouched.
func TestChatSession_BlockedReplyNotRecorded(t *testing.T) {
	tests := []struct {
		name  string
		reply *ai.GenerateContentResponse
	}{
		{"prompt blocked", &ai.GenerateContentResponse{PromptFeedback: &ai.PromptFeedback{BlockReason: "SAFETY"}}},
		{"candidate blocked", &ai.GenerateContentResponse{Candidates: []ai.Candidate{{
			Content:      &ai.Content{Role: ai.RoleModel, Parts: ai.Parts{ai.NewTextPart("partial")}},
			FinishReason: ai.FinishReasonSafety,
		}}}},
		{"no content", &ai.GenerateContentResponse{Candidates: []ai.Candidate{{FinishReason: ai.FinishReasonStop}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{responses: []*ai.GenerateContentResponse{tt.reply}}
			chat, err := newTestModel(t, provider).StartChat()
			if err != nil {
				t.Fatalf("StartChat: %v", err)
			}

			if _, err := chat.SendMessage(context.Background(), ai.NewTextPart("hi")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if history := chat.History(); len(history) != 0 {
				t.Errorf("expected empty history, got %d turns", len(history))
			}
		})
	}
}

// TestChatSession_ErrorNotRecorded verifies that a failed send leaves the
// history untouched.
func TestChatSession_ErrorNotRecorded(t *testing.T) {
	provider := &fakeProvider{err: ai.NewError(ai.ErrorCodeFetchError, "boom")}
	chat, err := newTestModel(t, provider).StartChat()
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}

	if _, err := chat.SendMessage(context.Background(), ai.NewTextPart("hi")); !ai.IsCode(err, ai.ErrorCodeFetchError) {
		t.Fatalf("expected fetch-error, got %v", err)
	}
	if history := chat.History(); len(history) != 0 {
		t.Errorf("expected empty history, got %d turns", len(history))
	}
}

// TestChatSession_StreamAppendsAfterResponse verifies that a streamed reply
// is recorded once the stream ends and that the next send waits for it.
func TestChatSession_StreamAppendsAfterResponse(t *testing.T) {
	provider := &fakeProvider{responses: []*ai.GenerateContentResponse{textReply("streamed"), textReply("after")}}
	chat, err := newTestModel(t, provider).StartChat()
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}

	stream, err := chat.SendMessageStream(context.Background(), ai.NewTextPart("one"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := stream.Response(context.Background()); err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}

	// The next send blocks until the streamed exchange is recorded.
	if _, err := chat.SendMessage(context.Background(), ai.NewTextPart("two")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent := provider.lastCall(t).request.Contents; len(sent) != 3 {
		t.Errorf("expected the streamed exchange in the next request, got %d contents", len(sent))
	}
	if history := chat.History(); len(history) != 4 {
		t.Errorf("expected 4 turns, got %d", len(history))
	}
}

// TestChatSession_ConcurrentSendsSerialised verifies that concurrent sends
// produce a well-formed alternating history.
func TestChatSession_ConcurrentSendsSerialised(t *testing.T) {
	provider := &fakeProvider{}
	chat, err := newTestModel(t, provider).StartChat()
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := chat.SendMessage(context.Background(), ai.NewTextPart("hi")); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sends did not complete")
	}

	history := chat.History()
	if len(history) != 16 {
		t.Fatalf("expected 16 turns, got %d", len(history))
	}
	if err := ai.ValidateChatHistory(history); err != nil {
		t.Errorf("expected a valid history, got %v", err)
	}
}

// TestChatSession_HistoryIsCopy verifies that History cannot mutate the
// session.
func TestChatSession_HistoryIsCopy(t *testing.T) {
	chat, err := newTestModel(t, &fakeProvider{}).StartChat(userText("hi"), modelText("hello"))
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}

	history := chat.History()
	history[0] = modelText("tampered")
	if chat.History()[0].Role != ai.RoleUser {
		t.Error("expected History to return a copy")
	}
}
