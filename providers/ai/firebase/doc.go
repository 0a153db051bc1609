// Package firebase implements the request pipeline of the Firebase AI
// backend: URL construction, authentication headers, timeouts, failure
// classification, and the server-sent event stream that feeds both a live
// iterator and a final aggregated response.
//
// Requests and responses are exchanged in the canonical Vertex AI shape; when
// the settings select the Google AI backend the googleai mapper converts them
// on the way out and on the way in.
package firebase
