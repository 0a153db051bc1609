package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/leofalp/fireai/providers/ai"
)

// ========== Fake provider ==========

type recordedCall struct {
	model   string
	request ai.GenerateContentRequest
	options ai.RequestOptions
}

// fakeProvider implements ai.Provider, ai.TemplateProvider and
// ai.ImageProvider. Replies are taken from responses in order; once they run
// out the last one is repeated.
type fakeProvider struct {
	mu        sync.Mutex
	calls     []recordedCall
	responses []*ai.GenerateContentResponse
	err       error

	countRequests []ai.CountTokensRequest
	predictBody   []byte
	predicted     []ai.PredictRequest
	templates     []string
}

func (f *fakeProvider) next() (*ai.EnhancedResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	index := len(f.calls) - 1
	if index >= len(f.responses) {
		index = len(f.responses) - 1
	}
	if index < 0 {
		return ai.NewEnhancedResponse(textReply("ok")), nil
	}
	return ai.NewEnhancedResponse(f.responses[index]), nil
}

func (f *fakeProvider) GenerateContent(_ context.Context, model string, request ai.GenerateContentRequest, options ai.RequestOptions) (*ai.EnhancedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{model: model, request: request, options: options})
	return f.next()
}

func (f *fakeProvider) GenerateContentStream(_ context.Context, model string, request ai.GenerateContentRequest, options ai.RequestOptions) (*ai.GenerateContentStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{model: model, request: request, options: options})
	response, err := f.next()
	if err != nil {
		return nil, err
	}
	return ai.NewSingleResponseStream(response), nil
}

func (f *fakeProvider) CountTokens(_ context.Context, _ string, request ai.CountTokensRequest, _ ai.RequestOptions) (*ai.CountTokensResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countRequests = append(f.countRequests, request)
	if f.err != nil {
		return nil, f.err
	}
	return &ai.CountTokensResponse{TotalTokens: 7}, nil
}

func (f *fakeProvider) Predict(_ context.Context, _ string, request ai.PredictRequest, _ ai.RequestOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predicted = append(f.predicted, request)
	if f.err != nil {
		return nil, f.err
	}
	return f.predictBody, nil
}

func (f *fakeProvider) TemplateGenerateContent(_ context.Context, templateID string, _ map[string]any, _ ai.RequestOptions) (*ai.EnhancedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates = append(f.templates, templateID)
	if f.err != nil {
		return nil, f.err
	}
	return ai.NewEnhancedResponse(textReply("from template")), nil
}

func (f *fakeProvider) TemplateGenerateContentStream(ctx context.Context, templateID string, inputs map[string]any, options ai.RequestOptions) (*ai.GenerateContentStream, error) {
	response, err := f.TemplateGenerateContent(ctx, templateID, inputs, options)
	if err != nil {
		return nil, err
	}
	return ai.NewSingleResponseStream(response), nil
}

func (f *fakeProvider) lastCall(t *testing.T) recordedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("expected the provider to be called")
	}
	return f.calls[len(f.calls)-1]
}

// textOnlyProvider hides the template and image interfaces of fakeProvider.
type textOnlyProvider struct {
	ai.Provider
}

func textReply(text string) *ai.GenerateContentResponse {
	return &ai.GenerateContentResponse{
		Candidates: []ai.Candidate{{
			Content:      &ai.Content{Role: ai.RoleModel, Parts: ai.Parts{ai.NewTextPart(text)}},
			FinishReason: ai.FinishReasonStop,
		}},
		UsageMetadata: &ai.UsageMetadata{PromptTokenCount: 4, CandidatesTokenCount: 2, TotalTokenCount: 6},
	}
}

func testSettings() ai.Settings {
	return ai.Settings{APIKey: "key", ProjectID: "my-project"}
}

func newTestClient(t *testing.T, provider ai.Provider, opts ...func(*ClientOptions)) *Client {
	t.Helper()
	c, err := New(testSettings(), append([]func(*ClientOptions){WithProvider(provider)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func newTestModel(t *testing.T, provider ai.Provider, opts ...func(*ModelOptions)) *GenerativeModel {
	t.Helper()
	model, err := newTestClient(t, provider).GenerativeModel("gemini-test", opts...)
	if err != nil {
		t.Fatalf("GenerativeModel: %v", err)
	}
	return model
}

// ========== New tests ==========

// TestNew_ValidatesSettings verifies that settings errors surface from New.
func TestNew_ValidatesSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings ai.Settings
		code     ai.ErrorCode
	}{
		{"no api key", ai.Settings{ProjectID: "p"}, ai.ErrorCodeNoAPIKey},
		{"no project", ai.Settings{APIKey: "k"}, ai.ErrorCodeNoProjectID},
		{"no app id", ai.Settings{APIKey: "k", ProjectID: "p", AutomaticDataCollectionEnabled: true}, ai.ErrorCodeNoAppID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.settings)
			if !ai.IsCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

// TestNew_FillsDefaults verifies that the validated settings carry defaults.
func TestNew_FillsDefaults(t *testing.T) {
	c, err := New(testSettings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	settings := c.Settings()
	if settings.Backend != ai.BackendVertexAI {
		t.Errorf("expected vertexai backend, got %q", settings.Backend)
	}
	if settings.Location != ai.DefaultLocation {
		t.Errorf("expected default location, got %q", settings.Location)
	}
}

// TestNew_NilSendMiddleware verifies that a MiddlewareConfig without Send is
// rejected.
func TestNew_NilSendMiddleware(t *testing.T) {
	_, err := New(testSettings(), WithMiddleware(MiddlewareConfig{}))
	if err == nil || !strings.Contains(err.Error(), "index 0") {
		t.Errorf("expected a nil Send error, got %v", err)
	}
}

// TestNew_DefaultProviderUsesHTTPClient verifies that the default Firebase
// provider is wired to the HTTP client and the model's base URL.
func TestNew_DefaultProviderUsesHTTPClient(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(textReply("from server"))
	}))
	defer server.Close()

	c, err := New(testSettings(), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	model, err := c.GenerativeModel("gemini-test", WithRequestOptions(ai.RequestOptions{BaseURL: server.URL}))
	if err != nil {
		t.Fatalf("GenerativeModel: %v", err)
	}

	response, err := model.GenerateText(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text, _ := response.Text(); text != "from server" {
		t.Errorf("expected 'from server', got %q", text)
	}
	wantPath := "/v1beta/projects/my-project/locations/us-central1/publishers/google/models/gemini-test:generateContent"
	if gotPath != wantPath {
		t.Errorf("path: expected %q, got %q", wantPath, gotPath)
	}
	if gotKey != "key" {
		t.Errorf("expected the api key header, got %q", gotKey)
	}
}

// ========== GenerativeModel tests ==========

// TestGenerativeModel_NormalizesName verifies the resource name per backend
// and the no-model error.
func TestGenerativeModel_NormalizesName(t *testing.T) {
	c := newTestClient(t, &fakeProvider{})
	model, err := c.GenerativeModel("gemini-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Model() != "publishers/google/models/gemini-test" {
		t.Errorf("unexpected model name %q", model.Model())
	}

	if _, err := c.GenerativeModel(""); !ai.IsCode(err, ai.ErrorCodeNoModel) {
		t.Errorf("expected no-model, got %v", err)
	}

	settings := testSettings()
	settings.Backend = ai.BackendGoogleAI
	googleClient, err := New(settings, WithProvider(&fakeProvider{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	googleModel, err := googleClient.GenerativeModel("gemini-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if googleModel.Model() != "models/gemini-test" {
		t.Errorf("unexpected model name %q", googleModel.Model())
	}
}

// TestGenerativeModel_MergesDefaults verifies that model defaults fill the
// request and that request fields win.
func TestGenerativeModel_MergesDefaults(t *testing.T) {
	provider := &fakeProvider{}
	temperature := 0.2
	model := newTestModel(t, provider,
		WithGenerationConfig(ai.GenerationConfig{Temperature: &temperature}),
		WithSafetySettings(ai.SafetySetting{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"}),
		WithTools(ai.Tool{GoogleSearch: &ai.GoogleSearch{}}),
		WithToolConfig(ai.ToolConfig{FunctionCallingConfig: &ai.FunctionCallingConfig{Mode: "AUTO"}}),
		WithSystemInstruction("be brief"),
		WithRequestOptions(ai.RequestOptions{BaseURL: "http://emulator"}),
	)

	if _, err := model.GenerateText(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := provider.lastCall(t)
	if call.model != "publishers/google/models/gemini-test" {
		t.Errorf("unexpected model %q", call.model)
	}
	if call.request.GenerationConfig == nil || *call.request.GenerationConfig.Temperature != 0.2 {
		t.Errorf("expected the default generation config, got %+v", call.request.GenerationConfig)
	}
	if len(call.request.SafetySettings) != 1 || len(call.request.Tools) != 1 || call.request.ToolConfig == nil {
		t.Errorf("expected safety settings, tools and tool config, got %+v", call.request)
	}
	if call.request.SystemInstruction == nil || call.request.SystemInstruction.Role != ai.RoleSystem {
		t.Errorf("expected a system instruction, got %+v", call.request.SystemInstruction)
	}
	if call.options.BaseURL != "http://emulator" {
		t.Errorf("expected the request options, got %+v", call.options)
	}
	if len(call.request.Contents) != 1 || call.request.Contents[0].Role != ai.RoleUser {
		t.Errorf("expected one user turn, got %+v", call.request.Contents)
	}

	override := 0.9
	_, err := model.GenerateContentWithRequest(context.Background(), ai.GenerateContentRequest{
		Contents:         []ai.Content{ai.NewUserContent(ai.NewTextPart("hi"))},
		GenerationConfig: &ai.GenerationConfig{Temperature: &override},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := *provider.lastCall(t).request.GenerationConfig.Temperature; got != 0.9 {
		t.Errorf("expected the request config to win, got %v", got)
	}
}

// TestGenerativeModel_FunctionResponseTurn verifies the turn role for
// function responses and the mixing error.
func TestGenerativeModel_FunctionResponseTurn(t *testing.T) {
	provider := &fakeProvider{}
	model := newTestModel(t, provider)
	response := ai.FunctionResponsePart{FunctionResponse: ai.FunctionResponse{Name: "lookup", Response: json.RawMessage(`{"ok":true}`)}}

	if _, err := model.GenerateContent(context.Background(), response); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role := provider.lastCall(t).request.Contents[0].Role; role != ai.RoleFunction {
		t.Errorf("expected function role, got %q", role)
	}

	_, err := model.GenerateContent(context.Background(), response, ai.NewTextPart("and text"))
	if !ai.IsCode(err, ai.ErrorCodeInvalidContent) {
		t.Errorf("expected invalid-content, got %v", err)
	}

	if _, err := model.GenerateContent(context.Background()); !ai.IsCode(err, ai.ErrorCodeInvalidContent) {
		t.Errorf("expected invalid-content for no parts, got %v", err)
	}
}

// TestGenerativeModel_Stream verifies that streams go through the provider
// with merged defaults.
func TestGenerativeModel_Stream(t *testing.T) {
	provider := &fakeProvider{}
	model := newTestModel(t, provider, WithSystemInstruction("be brief"))

	stream, err := model.GenerateContentStream(context.Background(), ai.NewTextPart("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	response, err := stream.Response(context.Background())
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if text, _ := response.Text(); text != "ok" {
		t.Errorf("expected 'ok', got %q", text)
	}
	if provider.lastCall(t).request.SystemInstruction == nil {
		t.Error("expected the system instruction in the streamed request")
	}
}

// TestGenerativeModel_CountTokens verifies that counting does not include the
// model defaults.
func TestGenerativeModel_CountTokens(t *testing.T) {
	provider := &fakeProvider{}
	model := newTestModel(t, provider, WithSystemInstruction("be brief"))

	response, err := model.CountTokens(context.Background(), ai.NewTextPart("count me"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.TotalTokens != 7 {
		t.Errorf("expected 7 tokens, got %d", response.TotalTokens)
	}
	request := provider.countRequests[0]
	if request.SystemInstruction != nil {
		t.Error("did not expect the model system instruction in countTokens")
	}
	if len(request.Contents) != 1 {
		t.Errorf("expected one content, got %d", len(request.Contents))
	}
}

// TestGenerativeModel_ProviderError verifies that provider errors are
// returned unchanged.
func TestGenerativeModel_ProviderError(t *testing.T) {
	providerErr := ai.NewErrorWithData(ai.ErrorCodeFetchError, "boom", &ai.CustomErrorData{Status: 500})
	model := newTestModel(t, &fakeProvider{err: providerErr})

	_, err := model.GenerateText(context.Background(), "hi")
	if !errors.Is(err, providerErr) {
		t.Errorf("expected the provider error, got %v", err)
	}
}
