package firebase

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/leofalp/fireai/internal/utils"
	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/ai/googleai"
	"github.com/leofalp/fireai/providers/observability"
)

// Client sends requests to the Firebase AI backend selected by its settings.
type Client struct {
	settings ai.Settings
	client   *http.Client
}

var (
	_ ai.Provider         = (*Client)(nil)
	_ ai.TemplateProvider = (*Client)(nil)
	_ ai.ImageProvider    = (*Client)(nil)
)

// New validates settings and creates a client. A nil httpClient selects a
// plain http.Client; timeouts are applied per request.
func New(settings ai.Settings, httpClient *http.Client) (*Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{settings: settings, client: httpClient}, nil
}

// Settings returns the validated settings.
func (c *Client) Settings() ai.Settings {
	return c.settings
}

func (c *Client) modelURL(model string, task Task, options ai.RequestOptions) RequestURL {
	return RequestURL{Settings: c.settings, Options: options, Task: task, Model: model}
}

func (c *Client) templateURL(templateID string, task Task, options ai.RequestOptions) RequestURL {
	return RequestURL{Settings: c.settings, Options: options, Task: task, TemplateID: templateID}
}

// generationBody encodes request in the dialect of the configured backend.
func (c *Client) generationBody(request ai.GenerateContentRequest) ([]byte, error) {
	var payload any = request
	if c.settings.Backend == ai.BackendGoogleAI {
		mapped, err := googleai.MapGenerateContentRequest(request)
		if err != nil {
			return nil, err
		}
		payload = mapped
	}
	return marshalBody(payload)
}

func marshalBody(payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ai.WrapError(ai.ErrorCodeRequestError, "Failed to encode request body", err)
	}
	return body, nil
}

// GenerateContent implements ai.Provider.
func (c *Client) GenerateContent(ctx context.Context, model string, request ai.GenerateContentRequest, options ai.RequestOptions) (*ai.EnhancedResponse, error) {
	body, err := c.generationBody(request)
	if err != nil {
		return nil, err
	}
	return c.unary(ctx, c.modelURL(model, TaskGenerateContent, options), body)
}

// GenerateContentStream implements ai.Provider.
func (c *Client) GenerateContentStream(ctx context.Context, model string, request ai.GenerateContentRequest, options ai.RequestOptions) (*ai.GenerateContentStream, error) {
	body, err := c.generationBody(request)
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, c.modelURL(model, TaskStreamGenerateContent, options), body)
}

// CountTokens implements ai.Provider.
func (c *Client) CountTokens(ctx context.Context, model string, request ai.CountTokensRequest, options ai.RequestOptions) (*ai.CountTokensResponse, error) {
	var payload any = request
	if c.settings.Backend == ai.BackendGoogleAI {
		payload = googleai.MapCountTokensRequest(request, model)
	}
	body, err := marshalBody(payload)
	if err != nil {
		return nil, err
	}

	data, err := c.post(ctx, c.modelURL(model, TaskCountTokens, options), body)
	if err != nil {
		return nil, err
	}

	var response ai.CountTokensResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, ai.WrapError(ai.ErrorCodeParseFailed, "Failed to parse countTokens response", err)
	}
	return &response, nil
}

// Predict implements ai.ImageProvider.
func (c *Client) Predict(ctx context.Context, model string, request ai.PredictRequest, options ai.RequestOptions) ([]byte, error) {
	body, err := marshalBody(request)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, c.modelURL(model, TaskPredict, options), body)
}

type templateRequest struct {
	Inputs map[string]any `json:"inputs"`
}

// TemplateGenerateContent implements ai.TemplateProvider.
func (c *Client) TemplateGenerateContent(ctx context.Context, templateID string, inputs map[string]any, options ai.RequestOptions) (*ai.EnhancedResponse, error) {
	body, err := templateBody(inputs)
	if err != nil {
		return nil, err
	}
	return c.unary(ctx, c.templateURL(templateID, TaskTemplateGenerateContent, options), body)
}

// TemplateGenerateContentStream implements ai.TemplateProvider.
func (c *Client) TemplateGenerateContentStream(ctx context.Context, templateID string, inputs map[string]any, options ai.RequestOptions) (*ai.GenerateContentStream, error) {
	body, err := templateBody(inputs)
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, c.templateURL(templateID, TaskTemplateStreamGenerateContent, options), body)
}

func templateBody(inputs map[string]any) ([]byte, error) {
	if inputs == nil {
		inputs = map[string]any{}
	}
	return marshalBody(templateRequest{Inputs: inputs})
}

// post runs a unary request and returns the raw response body.
func (c *Client) post(ctx context.Context, url RequestURL, body []byte) ([]byte, error) {
	res, err := makeRequest(ctx, c.client, url, body)
	if err != nil {
		recordHTTPFailure(ctx, err)
		return nil, err
	}
	defer utils.CloseWithLog(res.Body)

	data, err := utils.ReadBody(res.Body)
	if err != nil {
		return nil, ai.WrapError(ai.ErrorCodeError, "Error reading response body", err)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(observability.Int(observability.AttrHTTPResponseBodySize, len(data)))
	}
	return data, nil
}

func (c *Client) unary(ctx context.Context, url RequestURL, body []byte) (*ai.EnhancedResponse, error) {
	data, err := c.post(ctx, url, body)
	if err != nil {
		return nil, err
	}
	response, err := decodeResponse(c.settings.Backend, data)
	if err != nil {
		return nil, err
	}
	return ai.NewEnhancedResponse(response), nil
}
