package live

import (
	"encoding/json"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/leofalp/fireai/internal/utils"
	"github.com/leofalp/fireai/providers/ai"
)

// MessageType discriminates server messages.
type MessageType string

const (
	TypeServerContent        MessageType = "serverContent"
	TypeToolCall             MessageType = "toolCall"
	TypeToolCallCancellation MessageType = "toolCallCancellation"
)

// ServerMessage is one of *ServerContent, *ToolCall or *ToolCallCancellation.
type ServerMessage interface {
	Type() MessageType
	isServerMessage()
}

// Transcription is the text of transcribed audio.
type Transcription struct {
	Text string `json:"text"`
}

// ServerContent is incremental model output. TurnComplete marks the end of
// the model turn; Interrupted reports that client activity cut it short.
type ServerContent struct {
	ModelTurn           *ai.Content    `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// ToolCall asks the client to run functions and answer with
// Session.SendFunctionResponses.
type ToolCall struct {
	FunctionCalls []ai.FunctionCall `json:"functionCalls"`
}

// ToolCallCancellation withdraws earlier tool calls by id.
type ToolCallCancellation struct {
	FunctionIDs []string `json:"ids"`
}

func (*ServerContent) Type() MessageType        { return TypeServerContent }
func (*ToolCall) Type() MessageType             { return TypeToolCall }
func (*ToolCallCancellation) Type() MessageType { return TypeToolCallCancellation }

func (*ServerContent) isServerMessage()        {}
func (*ToolCall) isServerMessage()             {}
func (*ToolCallCancellation) isServerMessage() {}

// classify decodes data into a server message. ok is false for messages that
// are not objects or carry none of the known keys; they are logged and
// dropped. A known message with an undecodable body is a parse-failed error.
func classify(data []byte) (message ServerMessage, ok bool, err error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		slog.Warn("Received an invalid message from the server", "message", utils.TruncateString(string(data), 0))
		return nil, false, nil
	}

	var raw gjson.Result
	switch {
	case parsed.Get(string(TypeServerContent)).Exists():
		raw = parsed.Get(string(TypeServerContent))
		message = &ServerContent{}
	case parsed.Get(string(TypeToolCall)).Exists():
		raw = parsed.Get(string(TypeToolCall))
		message = &ToolCall{}
	case parsed.Get(string(TypeToolCallCancellation)).Exists():
		raw = parsed.Get(string(TypeToolCallCancellation))
		message = &ToolCallCancellation{}
	default:
		slog.Warn("Received an unknown message type from the server", "message", utils.TruncateString(string(data), 0))
		return nil, false, nil
	}

	if err := json.Unmarshal([]byte(raw.Raw), message); err != nil {
		return nil, false, ai.WrapError(ai.ErrorCodeParseFailed, "Failed to parse "+string(message.Type())+" message", err)
	}
	return message, true, nil
}

// Outbound message envelopes.

type clientContentMessage struct {
	ClientContent clientContent `json:"clientContent"`
}

type clientContent struct {
	Turns        []ai.Content `json:"turns"`
	TurnComplete bool         `json:"turnComplete"`
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	Text        string    `json:"text,omitempty"`
	Audio       *ai.Blob  `json:"audio,omitempty"`
	Video       *ai.Blob  `json:"video,omitempty"`
	MediaChunks []ai.Blob `json:"mediaChunks,omitempty"`
}

type toolResponseMessage struct {
	ToolResponse toolResponse `json:"toolResponse"`
}

type toolResponse struct {
	FunctionResponses []ai.FunctionResponse `json:"functionResponses"`
}
