package client

import (
	"context"

	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/ai/firebase"
	"github.com/leofalp/fireai/providers/observability"
)

// ImagenModel generates images from text prompts.
type ImagenModel struct {
	client  *Client
	model   string
	options ModelOptions
}

// ImagenModel returns a handle on an Imagen model, for example
// "imagen-3.0-generate-002".
func (c *Client) ImagenModel(model string, opts ...func(*ModelOptions)) (*ImagenModel, error) {
	name, err := ai.NormalizeModelName(c.settings.Backend, model)
	if err != nil {
		return nil, err
	}
	return &ImagenModel{client: c, model: name, options: newModelOptions(opts)}, nil
}

// Model returns the normalised model resource name.
func (m *ImagenModel) Model() string {
	return m.model
}

// GenerateImages returns the images as base64 data. Images removed by safety
// filtering are reported in FilteredReason; if every image was removed the
// result has no images and no error.
func (m *ImagenModel) GenerateImages(ctx context.Context, prompt string) (*ai.ImagenGenerationResponse[ai.ImagenInlineImage], error) {
	return generateImages[ai.ImagenInlineImage](ctx, m, prompt, "")
}

// GenerateImagesGCS writes the images under the Cloud Storage prefix gcsURI
// ("gs://bucket/path/") and returns their locations.
func (m *ImagenModel) GenerateImagesGCS(ctx context.Context, prompt, gcsURI string) (*ai.ImagenGenerationResponse[ai.ImagenGCSImage], error) {
	return generateImages[ai.ImagenGCSImage](ctx, m, prompt, gcsURI)
}

func generateImages[T ai.ImagenImage](ctx context.Context, m *ImagenModel, prompt, gcsURI string) (*ai.ImagenGenerationResponse[T], error) {
	if m.client.images == nil {
		return nil, ai.NewError(ai.ErrorCodeUnsupported, "the configured provider does not support image generation")
	}

	ctx, finish := m.client.startSpan(ctx, observability.SpanGenerateImages,
		observability.String(observability.AttrModel, m.model),
		observability.String(observability.AttrTask, string(firebase.TaskPredict)),
	)

	request := ai.NewPredictRequest(prompt, gcsURI, m.options.ImagenConfig, m.options.ImagenSafety)
	body, err := m.client.images.Predict(ctx, m.model, *request, m.options.RequestOptions)
	if err != nil {
		finish(err)
		return nil, err
	}

	response, err := ai.ParseImagenResponse[T](body)
	finish(err)
	return response, err
}
