package client

import (
	"context"

	"github.com/leofalp/fireai/internal/jsonschema"
	"github.com/leofalp/fireai/providers/ai"
)

// StructuredResponse pairs the decoded value with the response it came from.
type StructuredResponse[T any] struct {
	Data T
	Raw  *ai.EnhancedResponse
}

// GenerateJSON asks model for a JSON reply to parts and decodes it into T.
//
// The request's generation config is the model default with ResponseMimeType
// forced to "application/json". When the model has no ResponseSchema one is
// derived from T (see the jsonschema struct tag); an explicit schema passed
// through WithGenerationConfig wins. Slightly malformed JSON is repaired
// before decoding.
//
// Example:
//
//	type Recipe struct {
//	    Name        string   `json:"name"`
//	    Ingredients []string `json:"ingredients"`
//	}
//
//	result, err := client.GenerateJSON[Recipe](ctx, model, ai.NewTextPart("A cookie recipe"))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Data.Name)
func GenerateJSON[T any](ctx context.Context, model *GenerativeModel, parts ...ai.Part) (*StructuredResponse[T], error) {
	content, err := ai.FormatNewContent(parts...)
	if err != nil {
		return nil, err
	}

	config := ai.GenerationConfig{}
	if model.options.GenerationConfig != nil {
		config = *model.options.GenerationConfig
	}
	config.ResponseMimeType = "application/json"
	if config.ResponseSchema == nil {
		schema, err := jsonschema.GenerateSchema[T]()
		if err != nil {
			return nil, err
		}
		config.ResponseSchema = schema
	}

	response, err := model.GenerateContentWithRequest(ctx, ai.GenerateContentRequest{
		Contents:         []ai.Content{content},
		GenerationConfig: &config,
	})
	if err != nil {
		return nil, err
	}

	data, err := ai.DecodeJSON[T](response)
	if err != nil {
		return nil, err
	}
	return &StructuredResponse[T]{Data: data, Raw: response}, nil
}
