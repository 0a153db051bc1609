package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leofalp/fireai/internal/utils"
	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/ai/live"
)

// closeTimeout bounds the wait for the close frame to be written.
const closeTimeout = time.Second

// Transport implements live.Transport over a gorilla/websocket connection.
// Writes are serialised; a single goroutine reads and forwards messages.
type Transport struct {
	dialer *websocket.Dialer
	header http.Header

	writeMu sync.Mutex
	conn    *websocket.Conn

	inbound   chan live.Inbound
	done      chan struct{}
	closeOnce sync.Once
}

var _ live.Transport = (*Transport)(nil)

// New creates a transport. A nil dialer selects websocket.DefaultDialer.
func New(dialer *websocket.Dialer) *Transport {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Transport{
		dialer:  dialer,
		header:  http.Header{},
		inbound: make(chan live.Inbound),
		done:    make(chan struct{}),
	}
}

// WithHeader adds a header to the opening handshake request.
func (t *Transport) WithHeader(key, value string) *Transport {
	t.header.Add(key, value)
	return t
}

// Connect dials url and starts reading. A transport connects once.
func (t *Transport) Connect(ctx context.Context, url string) error {
	select {
	case <-t.done:
		return ai.NewError(ai.ErrorCodeRequestError, "WebSocket is closed.")
	default:
	}

	conn, res, err := t.dialer.DialContext(ctx, url, t.header)
	if res != nil && res.Body != nil {
		utils.CloseWithLog(res.Body)
	}
	if err != nil {
		return ai.WrapError(ai.ErrorCodeError, fmt.Sprintf("Error connecting to %s: %s", redact(url), err.Error()), err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	select {
	case <-t.done:
		utils.CloseWithLog(conn)
		return ai.NewError(ai.ErrorCodeRequestError, "WebSocket is closed.")
	default:
	}
	t.conn = conn

	go t.readLoop(conn)
	return nil
}

// Send writes data as one text message. The context deadline, if any,
// becomes the write deadline.
func (t *Transport) Send(ctx context.Context, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.conn == nil {
		return ai.NewError(ai.ErrorCodeRequestError, "WebSocket is not open.")
	}
	select {
	case <-t.done:
		return ai.NewError(ai.ErrorCodeRequestError, "WebSocket is not open.")
	default:
	}

	deadline, _ := ctx.Deadline()
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return ai.WrapError(ai.ErrorCodeError, "Failed to set write deadline", err)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return ai.WrapError(ai.ErrorCodeError, "Failed to send WebSocket message: "+err.Error(), err)
	}
	return nil
}

// Listen returns the inbound message channel. It is closed when the
// connection ends.
func (t *Transport) Listen() <-chan live.Inbound {
	return t.inbound
}

// Close sends a close frame with code and reason and closes the connection.
// Later calls do nothing.
func (t *Transport) Close(code int, reason string) error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)

		t.writeMu.Lock()
		defer t.writeMu.Unlock()
		if t.conn == nil {
			close(t.inbound)
			return
		}

		message := websocket.FormatCloseMessage(code, reason)
		if writeErr := t.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(closeTimeout)); writeErr != nil &&
			!errors.Is(writeErr, websocket.ErrCloseSent) && !errors.Is(writeErr, net.ErrClosed) {
			err = ai.WrapError(ai.ErrorCodeError, "Failed to send close frame", writeErr)
		}
		if closeErr := t.conn.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) && err == nil {
			err = ai.WrapError(ai.ErrorCodeError, "Failed to close WebSocket", closeErr)
		}
	})
	return err
}

// readLoop forwards every message of conn until it fails, then closes the
// inbound channel. Text and binary messages must hold JSON; anything else
// is forwarded as a parse-failed error. A close other than a normal one is
// reported as an error. A connection ended by the server is released here.
func (t *Transport) readLoop(conn *websocket.Conn) {
	defer close(t.inbound)
	defer func() {
		select {
		case <-t.done:
		default:
			_ = conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				if closeErr.Code != websocket.CloseNormalClosure {
					t.forward(live.Inbound{Err: ai.WrapError(ai.ErrorCodeError,
						fmt.Sprintf("WebSocket connection closed by server with code %d: %s", closeErr.Code, closeErr.Text), err)})
				}
				return
			}
			select {
			case <-t.done:
			default:
				t.forward(live.Inbound{Err: ai.WrapError(ai.ErrorCodeError, "Error reading from WebSocket: "+err.Error(), err)})
			}
			return
		}

		var message live.Inbound
		if json.Valid(data) {
			message.Data = data
		} else {
			message.Err = ai.NewError(ai.ErrorCodeParseFailed,
				"Error parsing WebSocket message to JSON: "+utils.TruncateString(string(data), 0))
		}
		if !t.forward(message) {
			return
		}
	}
}

// forward delivers message unless the transport is closed first.
func (t *Transport) forward(message live.Inbound) bool {
	select {
	case t.inbound <- message:
		return true
	case <-t.done:
		return false
	}
}

// redact hides the API key carried in the query string.
func redact(url string) string {
	if base, _, found := strings.Cut(url, "?"); found {
		return base + "?key=..."
	}
	return url
}
