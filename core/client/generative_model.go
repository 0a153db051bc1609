package client

import (
	"context"
	"slices"

	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/ai/firebase"
	"github.com/leofalp/fireai/providers/ai/live"
	"github.com/leofalp/fireai/providers/observability"
)

// ModelOptions holds the per-model defaults set by the With* model options.
// Imagen and live fields only apply to the matching model kinds.
type ModelOptions struct {
	GenerationConfig  *ai.GenerationConfig
	SafetySettings    []ai.SafetySetting
	Tools             []ai.Tool
	ToolConfig        *ai.ToolConfig
	SystemInstruction *ai.Content
	RequestOptions    ai.RequestOptions

	ImagenConfig ai.ImagenGenerationConfig
	ImagenSafety ai.ImagenSafetySettings

	LiveConfig  *live.LiveGenerationConfig
	LiveBaseURL string
}

// WithGenerationConfig sets the default generation parameters.
func WithGenerationConfig(config ai.GenerationConfig) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.GenerationConfig = &config
	}
}

func WithSafetySettings(settings ...ai.SafetySetting) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.SafetySettings = append(o.SafetySettings, settings...)
	}
}

func WithTools(tools ...ai.Tool) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.Tools = append(o.Tools, tools...)
	}
}

func WithToolConfig(config ai.ToolConfig) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.ToolConfig = &config
	}
}

// WithSystemInstruction sets a text system instruction.
func WithSystemInstruction(text string) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.SystemInstruction = &ai.Content{Role: ai.RoleSystem, Parts: ai.Parts{ai.NewTextPart(text)}}
	}
}

// WithRequestOptions sets the timeout and base URL of the model's requests.
func WithRequestOptions(options ai.RequestOptions) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.RequestOptions = options
	}
}

func WithImagenConfig(config ai.ImagenGenerationConfig) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.ImagenConfig = config
	}
}

func WithImagenSafetySettings(settings ai.ImagenSafetySettings) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.ImagenSafety = settings
	}
}

// WithLiveGenerationConfig sets the generation parameters sent in the live
// setup message.
func WithLiveGenerationConfig(config live.LiveGenerationConfig) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.LiveConfig = &config
	}
}

// WithLiveBaseURL replaces the WebSocket origin of live sessions.
func WithLiveBaseURL(baseURL string) func(*ModelOptions) {
	return func(o *ModelOptions) {
		o.LiveBaseURL = baseURL
	}
}

func newModelOptions(opts []func(*ModelOptions)) ModelOptions {
	options := ModelOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// GenerativeModel generates content with one model. Its defaults are merged
// into every request; fields the request sets itself win.
type GenerativeModel struct {
	client  *Client
	model   string
	options ModelOptions
}

// GenerativeModel returns a handle on model. Short names such as
// "gemini-2.5-flash" are expanded to the resource path of the configured
// backend; an empty name is a no-model error.
func (c *Client) GenerativeModel(model string, opts ...func(*ModelOptions)) (*GenerativeModel, error) {
	name, err := ai.NormalizeModelName(c.settings.Backend, model)
	if err != nil {
		return nil, err
	}
	return &GenerativeModel{client: c, model: name, options: newModelOptions(opts)}, nil
}

// Model returns the normalised model resource name.
func (m *GenerativeModel) Model() string {
	return m.model
}

// withDefaults fills the request fields left empty from the model defaults.
func (m *GenerativeModel) withDefaults(request ai.GenerateContentRequest) ai.GenerateContentRequest {
	if request.GenerationConfig == nil {
		request.GenerationConfig = m.options.GenerationConfig
	}
	if len(request.SafetySettings) == 0 {
		request.SafetySettings = m.options.SafetySettings
	}
	if len(request.Tools) == 0 {
		request.Tools = m.options.Tools
	}
	if request.ToolConfig == nil {
		request.ToolConfig = m.options.ToolConfig
	}
	if request.SystemInstruction == nil {
		request.SystemInstruction = m.options.SystemInstruction
	}
	return request
}

func (m *GenerativeModel) call(request ai.GenerateContentRequest) Call {
	return Call{Model: m.model, Request: m.withDefaults(request), Options: m.options.RequestOptions}
}

// GenerateContent sends parts as one turn. The turn has role "function" when
// every part is a function response and "user" otherwise.
func (m *GenerativeModel) GenerateContent(ctx context.Context, parts ...ai.Part) (*ai.EnhancedResponse, error) {
	content, err := ai.FormatNewContent(parts...)
	if err != nil {
		return nil, err
	}
	return m.GenerateContentWithRequest(ctx, ai.GenerateContentRequest{Contents: []ai.Content{content}})
}

// GenerateText is GenerateContent for a single text prompt.
func (m *GenerativeModel) GenerateText(ctx context.Context, prompt string) (*ai.EnhancedResponse, error) {
	return m.GenerateContent(ctx, ai.NewTextPart(prompt))
}

func (m *GenerativeModel) GenerateContentWithRequest(ctx context.Context, request ai.GenerateContentRequest) (*ai.EnhancedResponse, error) {
	return m.client.send(ctx, m.call(request))
}

// GenerateContentStream sends parts as one turn and streams the reply.
func (m *GenerativeModel) GenerateContentStream(ctx context.Context, parts ...ai.Part) (*ai.GenerateContentStream, error) {
	content, err := ai.FormatNewContent(parts...)
	if err != nil {
		return nil, err
	}
	return m.GenerateContentStreamWithRequest(ctx, ai.GenerateContentRequest{Contents: []ai.Content{content}})
}

func (m *GenerativeModel) GenerateContentStreamWithRequest(ctx context.Context, request ai.GenerateContentRequest) (*ai.GenerateContentStream, error) {
	return m.client.stream(ctx, m.call(request))
}

// CountTokens counts the tokens of parts sent as one turn. Model defaults are
// not included.
func (m *GenerativeModel) CountTokens(ctx context.Context, parts ...ai.Part) (*ai.CountTokensResponse, error) {
	content, err := ai.FormatNewContent(parts...)
	if err != nil {
		return nil, err
	}
	return m.CountTokensWithRequest(ctx, ai.CountTokensRequest{Contents: []ai.Content{content}})
}

func (m *GenerativeModel) CountTokensWithRequest(ctx context.Context, request ai.CountTokensRequest) (*ai.CountTokensResponse, error) {
	ctx, finish := m.client.startSpan(ctx, observability.SpanCountTokens,
		observability.String(observability.AttrModel, m.model),
		observability.String(observability.AttrTask, string(firebase.TaskCountTokens)),
		observability.Int(observability.AttrRequestContents, len(request.Contents)),
	)
	response, err := m.client.provider.CountTokens(ctx, m.model, request, m.options.RequestOptions)
	if err == nil {
		if span := observability.SpanFromContext(ctx); span != nil {
			span.SetAttributes(observability.Int(observability.AttrTokensTotal, response.TotalTokens))
		}
	}
	finish(err)
	return response, err
}

// StartChat opens a chat session seeded with history, which must alternate
// roles the way the backend expects (see ai.ValidateChatHistory).
func (m *GenerativeModel) StartChat(history ...ai.Content) (*ChatSession, error) {
	if err := ai.ValidateChatHistory(history); err != nil {
		return nil, err
	}
	return &ChatSession{model: m, history: slices.Clone(history)}, nil
}
