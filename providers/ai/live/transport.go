package live

import "context"

// Close codes used by the session.
const (
	CloseNormal        = 1000
	CloseInternalError = 1011
)

// Inbound is one message received by a Transport. Err is set instead of
// Data when the message could not be read or decoded.
type Inbound struct {
	Data []byte
	Err  error
}

// Transport is a message-oriented bidirectional connection, typically a
// WebSocket.
//
// Listen returns the channel of received messages. The channel is closed
// when the connection ends for any reason, including Close, so a consumer
// ranging over it always terminates. Close must be safe to call more than
// once.
type Transport interface {
	Connect(ctx context.Context, url string) error
	Send(ctx context.Context, data []byte) error
	Listen() <-chan Inbound
	Close(code int, reason string) error
}
