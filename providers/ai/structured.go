package ai

import (
	"github.com/leofalp/fireai/internal/utils"
)

// DecodeJSON decodes the text of the first candidate into T. It is meant for
// responses requested with ResponseMimeType "application/json" and a
// ResponseSchema; slightly malformed JSON (markdown fences, trailing commas,
// truncation) is repaired before giving up.
func DecodeJSON[T any](response *EnhancedResponse) (T, error) {
	var zero T

	text, err := response.Text()
	if err != nil {
		return zero, err
	}
	if text == "" {
		return zero, NewError(ErrorCodeParseFailed, "response has no text to decode")
	}

	value, err := utils.ParseStringAs[T](text)
	if err != nil {
		return zero, WrapError(ErrorCodeParseFailed, "failed to decode response text", err)
	}
	return value, nil
}
