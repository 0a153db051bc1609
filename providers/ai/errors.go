package ai

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable string code carried by every [Error].
type ErrorCode string

const (
	// ErrorCodeError is a generic error, typically a wrapped transport failure.
	ErrorCodeError ErrorCode = "error"
	// ErrorCodeRequestError indicates a problem with the request being sent.
	ErrorCodeRequestError ErrorCode = "request-error"
	// ErrorCodeResponseError indicates a blocked or otherwise unusable response.
	ErrorCodeResponseError ErrorCode = "response-error"
	// ErrorCodeFetchError indicates a non-2xx HTTP status.
	ErrorCodeFetchError ErrorCode = "fetch-error"
	// ErrorCodeSessionClosed indicates use of a closed live session.
	ErrorCodeSessionClosed ErrorCode = "session-closed"
	// ErrorCodeInvalidContent indicates malformed content or history.
	ErrorCodeInvalidContent ErrorCode = "invalid-content"
	// ErrorCodeAPINotEnabled indicates the backend API is disabled for the project.
	ErrorCodeAPINotEnabled ErrorCode = "api-not-enabled"
	// ErrorCodeInvalidSchema indicates an inconsistent response or parameter schema.
	ErrorCodeInvalidSchema ErrorCode = "invalid-schema"
	// ErrorCodeNoAPIKey indicates the settings carry no API key.
	ErrorCodeNoAPIKey ErrorCode = "no-api-key"
	// ErrorCodeNoAppID indicates the settings carry no app id.
	ErrorCodeNoAppID ErrorCode = "no-app-id"
	// ErrorCodeNoModel indicates a model was not specified.
	ErrorCodeNoModel ErrorCode = "no-model"
	// ErrorCodeNoProjectID indicates the settings carry no project id.
	ErrorCodeNoProjectID ErrorCode = "no-project-id"
	// ErrorCodeParseFailed indicates a response or stream frame could not be parsed.
	ErrorCodeParseFailed ErrorCode = "parse-failed"
	// ErrorCodeUnsupported indicates a feature the selected backend cannot express.
	ErrorCodeUnsupported ErrorCode = "unsupported"
)

// errorService prefixes every formatted message.
const errorService = "AI"

// ErrorDetails is one entry of the structured "details" list of a server error body.
type ErrorDetails struct {
	Type     string            `json:"@type,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Domain   string            `json:"domain,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Links    []ErrorLink       `json:"links,omitempty"`
}

// ErrorLink is a help link attached to an error detail.
type ErrorLink struct {
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// CustomErrorData carries diagnostics attached to an [Error].
type CustomErrorData struct {
	Status       int                      `json:"status,omitempty"`
	StatusText   string                   `json:"statusText,omitempty"`
	ErrorDetails []ErrorDetails           `json:"errorDetails,omitempty"`
	Response     *GenerateContentResponse `json:"response,omitempty"`
}

// Error is the single error type surfaced by the library. Message holds the
// human-readable detail; Error() formats it as "AI: <detail> (AI/<code>)".
type Error struct {
	Code       ErrorCode
	Message    string
	CustomData *CustomErrorData

	cause error
}

// NewError creates an Error with the given code and detail message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithData creates an Error carrying diagnostics.
func NewErrorWithData(code ErrorCode, message string, data *CustomErrorData) *Error {
	return &Error{Code: code, Message: message, CustomData: data}
}

// WrapError creates an Error whose cause is err; errors.Unwrap returns err.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s/%s)", errorService, e.Message, errorService, e.Code)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error with the same code, so sentinel-style comparisons
// such as errors.Is(err, &ai.Error{Code: ai.ErrorCodeSessionClosed}) work.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// IsCode reports whether err is, or wraps, an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var aiErr *Error
	if !errors.As(err, &aiErr) {
		return false
	}
	return aiErr.Code == code
}
