// Package client is the model-level API of fireai. A [Client] binds validated
// [ai.Settings] to a provider (the Firebase AI HTTP pipeline by default) and
// hands out model handles:
//
//   - [GenerativeModel] for unary and streamed generation, token counting
//     and [ChatSession] conversations;
//   - [ImagenModel] for image generation;
//   - [TemplateGenerativeModel] for server-side prompt templates;
//   - [LiveGenerativeModel] for bidirectional live sessions.
//
// Generation calls travel through a middleware chain ([MiddlewareConfig]);
// the middleware subpackage provides retry, logging and timeout middlewares,
// and [WithObserver] adds spans and metrics in front of them.
package client
