package client

import (
	"context"

	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/observability"
)

// TemplateGenerativeModel runs prompt templates stored on the server. The
// model, the prompt and its settings belong to the template; the caller only
// supplies the template variables.
type TemplateGenerativeModel struct {
	client  *Client
	options ai.RequestOptions
}

// TemplateGenerativeModel returns a handle for template requests. Only the
// request options of opts apply.
func (c *Client) TemplateGenerativeModel(opts ...func(*ModelOptions)) *TemplateGenerativeModel {
	return &TemplateGenerativeModel{client: c, options: newModelOptions(opts).RequestOptions}
}

// GenerateContent renders templateID with inputs and generates content.
func (m *TemplateGenerativeModel) GenerateContent(ctx context.Context, templateID string, inputs map[string]any) (*ai.EnhancedResponse, error) {
	if m.client.templates == nil {
		return nil, errTemplatesUnsupported()
	}

	ctx, finish := m.client.startSpan(ctx, observability.SpanGenerateContent,
		observability.String(observability.AttrTemplate, templateID),
	)
	response, err := m.client.templates.TemplateGenerateContent(ctx, templateID, inputs, m.options)
	finish(err)
	return response, err
}

// GenerateContentStream renders templateID with inputs and streams the reply.
// The span covers the request up to the first byte of the stream.
func (m *TemplateGenerativeModel) GenerateContentStream(ctx context.Context, templateID string, inputs map[string]any) (*ai.GenerateContentStream, error) {
	if m.client.templates == nil {
		return nil, errTemplatesUnsupported()
	}

	ctx, finish := m.client.startSpan(ctx, observability.SpanStreamGenerateContent,
		observability.String(observability.AttrTemplate, templateID),
	)
	stream, err := m.client.templates.TemplateGenerateContentStream(ctx, templateID, inputs, m.options)
	finish(err)
	return stream, err
}

func errTemplatesUnsupported() error {
	return ai.NewError(ai.ErrorCodeUnsupported, "the configured provider does not support prompt templates")
}
