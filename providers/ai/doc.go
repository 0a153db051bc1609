// Package ai defines the canonical data model of fireai and the behaviour
// that does not depend on a transport.
//
// Requests and responses use the Vertex AI shape ([GenerateContentRequest],
// [GenerateContentResponse]); the googleai subpackage maps the Gemini
// Developer API dialect onto it. [Part] is a closed sum type whose JSON form
// carries exactly one data field.
//
// Decoded responses are wrapped in [EnhancedResponse], whose accessors
// ([EnhancedResponse.Text], [EnhancedResponse.FunctionCalls], ...) apply the
// blocking rules and return [*Error] values. A streamed generation is a
// [GenerateContentStream]: live partial responses plus the [Aggregate] of all
// of them.
//
// Every failure surfaced by fireai is an [*Error] with a stable [ErrorCode];
// use [IsCode] or errors.As to inspect it.
package ai
