package client

import (
	"context"

	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/ai/live"
	"github.com/leofalp/fireai/providers/observability"
)

// LiveGenerativeModel opens bidirectional live sessions with one model.
type LiveGenerativeModel struct {
	client *Client
	model  string
	setup  live.Setup
}

// LiveGenerativeModel returns a handle on a live model. Generation config,
// system instruction, tools and tool config come from opts; the generation
// config is the one given with WithLiveGenerationConfig.
func (c *Client) LiveGenerativeModel(model string, opts ...func(*ModelOptions)) (*LiveGenerativeModel, error) {
	name, err := ai.NormalizeModelName(c.settings.Backend, model)
	if err != nil {
		return nil, err
	}

	options := newModelOptions(opts)
	return &LiveGenerativeModel{
		client: c,
		model:  name,
		setup: live.Setup{
			GenerationConfig:  options.LiveConfig,
			SystemInstruction: options.SystemInstruction,
			Tools:             options.Tools,
			ToolConfig:        options.ToolConfig,
			BaseURL:           options.LiveBaseURL,
		},
	}, nil
}

// Model returns the normalised model resource name.
func (m *LiveGenerativeModel) Model() string {
	return m.model
}

// Connect opens a session on a fresh transport and completes the setup
// handshake. The caller must Close the session.
func (m *LiveGenerativeModel) Connect(ctx context.Context) (*live.Session, error) {
	attrs := []observability.Attribute{observability.String(observability.AttrModel, m.model)}
	if m.setup.GenerationConfig != nil && len(m.setup.GenerationConfig.ResponseModalities) > 0 {
		attrs = append(attrs, observability.StringSlice(observability.AttrLiveModalities, m.setup.GenerationConfig.ResponseModalities))
	}
	ctx, finish := m.client.startSpan(ctx, observability.SpanLiveSession, attrs...)

	session, err := live.Connect(ctx, m.client.newTransport(), m.client.settings, m.model, m.setup)
	if err != nil {
		finish(err)
		return nil, err
	}
	return session, nil
}
