package live

import (
	"context"
	"encoding/json"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/observability"
)

const (
	closedSendMessage    = "This LiveSession has been closed and cannot be used."
	closedReceiveMessage = "Cannot read from a Live session that is closed. Try starting a new Live session."
	closeReason          = "Client closed session."
)

// Session is an open live session. Sends may be called from any goroutine
// and are delivered in call order; Receive supports one consumer at a time.
type Session struct {
	transport Transport
	inbound   <-chan Inbound

	span observability.Span

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	receiving atomic.Bool
}

// Connect opens transport, sends the setup message for model and waits for
// the server to acknowledge it. model is a normalised resource name (see
// ai.NormalizeModelName).
//
// If the first message is not a setupComplete acknowledgment the transport
// is closed with code 1011 and a response-error is returned. Any other
// failure closes the transport and is returned as is.
//
// A span found in ctx is adopted by the session: inbound messages are added
// to it as events and Close ends it.
func Connect(ctx context.Context, transport Transport, settings ai.Settings, model string, setup Setup) (*Session, error) {
	session, err := handshake(ctx, transport, settings, model, setup)
	if err != nil {
		if !ai.IsCode(err, ai.ErrorCodeResponseError) {
			_ = transport.Close(CloseNormal, "")
		}
		return nil, err
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventLiveSetupComplete, observability.String(observability.AttrModel, model))
		session.span = span
	}
	return session, nil
}

func handshake(ctx context.Context, transport Transport, settings ai.Settings, model string, setup Setup) (*Session, error) {
	if err := transport.Connect(ctx, URL(settings, setup.BaseURL)); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(newSetupMessage(settings, model, setup))
	if err != nil {
		return nil, ai.WrapError(ai.ErrorCodeRequestError, "Failed to encode setup message", err)
	}
	if err := transport.Send(ctx, payload); err != nil {
		return nil, err
	}

	inbound := transport.Listen()
	var first Inbound
	var received bool
	select {
	case first, received = <-inbound:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if received && first.Err != nil {
		return nil, first.Err
	}

	var acknowledgment map[string]json.RawMessage
	if !received || json.Unmarshal(first.Data, &acknowledgment) != nil || acknowledgment["setupComplete"] == nil {
		_ = transport.Close(CloseInternalError, "Handshake failure")
		return nil, ai.NewError(ai.ErrorCodeResponseError,
			"Server connection handshake failed. The server did not respond with a setupComplete message.")
	}

	return &Session{
		transport: transport,
		inbound:   inbound,
		done:      make(chan struct{}),
	}, nil
}

// IsClosed reports whether Close has been called or the transport has ended
// the connection.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

func (s *Session) send(ctx context.Context, message any) error {
	if s.closed.Load() {
		return ai.NewError(ai.ErrorCodeSessionClosed, closedSendMessage)
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return ai.WrapError(ai.ErrorCodeRequestError, "Failed to encode message", err)
	}
	return s.transport.Send(ctx, payload)
}

// Send sends one conversation turn. turnComplete tells the model to start
// answering.
func (s *Session) Send(ctx context.Context, parts []ai.Part, turnComplete bool) error {
	if s.closed.Load() {
		return ai.NewError(ai.ErrorCodeSessionClosed, closedSendMessage)
	}
	content, err := ai.FormatNewContent(parts...)
	if err != nil {
		return err
	}
	return s.send(ctx, clientContentMessage{ClientContent: clientContent{
		Turns:        []ai.Content{content},
		TurnComplete: turnComplete,
	}})
}

// SendText sends text as a complete turn.
func (s *Session) SendText(ctx context.Context, text string) error {
	return s.Send(ctx, []ai.Part{ai.NewTextPart(text)}, true)
}

// SendTextRealtime streams text input.
func (s *Session) SendTextRealtime(ctx context.Context, text string) error {
	return s.send(ctx, realtimeInputMessage{RealtimeInput: realtimeInput{Text: text}})
}

// SendAudioRealtime streams one chunk of audio.
func (s *Session) SendAudioRealtime(ctx context.Context, blob ai.Blob) error {
	return s.send(ctx, realtimeInputMessage{RealtimeInput: realtimeInput{Audio: &blob}})
}

// SendVideoRealtime streams one video frame.
func (s *Session) SendVideoRealtime(ctx context.Context, blob ai.Blob) error {
	return s.send(ctx, realtimeInputMessage{RealtimeInput: realtimeInput{Video: &blob}})
}

// SendFunctionResponses answers a ToolCall.
func (s *Session) SendFunctionResponses(ctx context.Context, responses []ai.FunctionResponse) error {
	return s.send(ctx, toolResponseMessage{ToolResponse: toolResponse{FunctionResponses: responses}})
}

// SendMediaChunks sends each chunk as its own realtime input message.
//
// Deprecated: use SendAudioRealtime or SendVideoRealtime.
func (s *Session) SendMediaChunks(ctx context.Context, chunks []ai.Blob) error {
	if s.closed.Load() {
		return ai.NewError(ai.ErrorCodeSessionClosed, closedSendMessage)
	}
	for _, chunk := range chunks {
		message := realtimeInputMessage{RealtimeInput: realtimeInput{MediaChunks: []ai.Blob{chunk}}}
		if err := s.send(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

// SendMediaStream forwards every chunk of chunks as it arrives. A failure of
// the sequence or of a send ends the stream with a request-error.
//
// Deprecated: use SendAudioRealtime or SendVideoRealtime.
func (s *Session) SendMediaStream(ctx context.Context, chunks iter.Seq2[ai.Blob, error]) error {
	if s.closed.Load() {
		return ai.NewError(ai.ErrorCodeSessionClosed, closedSendMessage)
	}
	for chunk, err := range chunks {
		if err == nil {
			err = s.SendMediaChunks(ctx, []ai.Blob{chunk})
		}
		if err != nil {
			return ai.WrapError(ai.ErrorCodeRequestError, err.Error(), err)
		}
	}
	return nil
}

// Receive returns the sequence of server messages. It ends when the session
// or the transport closes, or with ctx's error when ctx is done. A
// connection ended by the transport closes the session. Messages of
// unknown shape are logged and skipped.
//
// Only one Receive may run at a time; a second concurrent one yields a
// request-error.
func (s *Session) Receive(ctx context.Context) iter.Seq2[ServerMessage, error] {
	return func(yield func(ServerMessage, error) bool) {
		if s.closed.Load() {
			yield(nil, ai.NewError(ai.ErrorCodeSessionClosed, closedReceiveMessage))
			return
		}
		if !s.receiving.CompareAndSwap(false, true) {
			yield(nil, ai.NewError(ai.ErrorCodeRequestError, "Receive is already in progress on this session."))
			return
		}
		defer s.receiving.Store(false)

		for {
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			case in, ok := <-s.inbound:
				if !ok {
					s.shutdown(false)
					return
				}
				if in.Err != nil {
					if !yield(nil, in.Err) {
						return
					}
					continue
				}

				message, known, err := classify(in.Data)
				if err != nil {
					if !yield(nil, err) {
						return
					}
					continue
				}
				if !known {
					continue
				}
				if s.span != nil {
					s.span.AddEvent(observability.EventLiveMessage, observability.String(observability.AttrLiveMessageType, string(message.Type())))
				}
				if !yield(message, nil) {
					return
				}
			}
		}
	}
}

// Close ends the session. The closed state is visible to other goroutines
// before the transport is torn down, and any running Receive returns. The
// span adopted from the Connect context is ended. Further calls do nothing,
// as does a Close after the transport has ended the connection.
func (s *Session) Close() error {
	return s.shutdown(true)
}

// shutdown marks the session closed once. closeTransport is false when the
// transport has already ended the connection.
func (s *Session) shutdown(closeTransport bool) error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		if closeTransport {
			err = s.transport.Close(CloseNormal, closeReason)
		}
		if s.span != nil {
			if closeTransport {
				s.span.AddEvent(observability.EventLiveClosed, observability.Int(observability.AttrLiveCloseCode, CloseNormal))
			} else {
				s.span.AddEvent(observability.EventLiveClosed, observability.String(observability.AttrStatus, "closed by server"))
			}
			s.span.End()
		}
	})
	return err
}
