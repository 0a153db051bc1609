// Package live implements the realtime bidirectional session protocol: the
// setup handshake, outbound content and realtime input framing, and the
// classification of server messages into [ServerContent], [ToolCall] and
// [ToolCallCancellation].
//
// The wire connection is abstracted behind [Transport]; the ws package in
// providers/transport supplies a WebSocket implementation.
package live
