// Package googleai maps between the canonical Vertex AI request and response
// shapes of package ai and the Gemini Developer API dialect.
//
// Requests go through [MapGenerateContentRequest] or [MapCountTokensRequest]
// before they are sent; decoded responses go through
// [MapGenerateContentResponse] before anything else reads them. The mapping
// never mutates its input.
package googleai
