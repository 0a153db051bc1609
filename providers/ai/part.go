package ai

import (
	"encoding/json"
	"fmt"
)

// Part is one element of a [Content]. It is a closed set of variants: exactly
// one data field is populated per part on the wire.
type Part interface {
	isPart()
	// Meta returns the thought markers shared by every variant.
	Meta() PartMeta
}

// PartMeta holds the fields every part variant may carry alongside its data.
type PartMeta struct {
	Thought          bool   `json:"thought,omitempty"`
	ThoughtSignature string `json:"thoughtSignature,omitempty"`
}

// Meta returns the receiver itself so embedding types satisfy [Part.Meta].
func (m PartMeta) Meta() PartMeta { return m }

// TextPart carries plain text.
type TextPart struct {
	PartMeta
	Text string
}

// InlineDataPart carries base64-encoded bytes and their MIME type.
type InlineDataPart struct {
	PartMeta
	InlineData Blob
}

// FunctionCallPart carries a function invocation requested by the model.
type FunctionCallPart struct {
	PartMeta
	FunctionCall FunctionCall
}

// FunctionResponsePart carries the caller's result for a function call.
type FunctionResponsePart struct {
	PartMeta
	FunctionResponse FunctionResponse
}

// FileDataPart references a file by URI.
type FileDataPart struct {
	PartMeta
	FileData FileData
}

// ExecutableCodePart carries code generated for the code execution tool.
type ExecutableCodePart struct {
	PartMeta
	ExecutableCode ExecutableCode
}

// CodeExecutionResultPart carries the outcome of executed code.
type CodeExecutionResultPart struct {
	PartMeta
	CodeExecutionResult CodeExecutionResult
}

func (TextPart) isPart()                {}
func (InlineDataPart) isPart()          {}
func (FunctionCallPart) isPart()        {}
func (FunctionResponsePart) isPart()    {}
func (FileDataPart) isPart()            {}
func (ExecutableCodePart) isPart()      {}
func (CodeExecutionResultPart) isPart() {}

// Blob is inline binary data, base64-encoded in Data.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FileData is a URI-addressed file.
type FileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

// FunctionCall is a model request to invoke a declared function.
type FunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// FunctionResponse is the result of a function call sent back to the model.
type FunctionResponse struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

// ExecutableCode is code produced by the model for the code execution tool.
type ExecutableCode struct {
	Language string `json:"language,omitempty"`
	Code     string `json:"code,omitempty"`
}

// CodeExecutionResult is the output of running ExecutableCode.
type CodeExecutionResult struct {
	Outcome string `json:"outcome,omitempty"`
	Output  string `json:"output,omitempty"`
}

// NewTextPart is a shorthand for a plain, non-thought text part.
func NewTextPart(text string) TextPart {
	return TextPart{Text: text}
}

// partWire is the JSON shape of a part: one optional field per variant.
type partWire struct {
	Text                *string              `json:"text,omitempty"`
	InlineData          *Blob                `json:"inlineData,omitempty"`
	FunctionCall        *FunctionCall        `json:"functionCall,omitempty"`
	FunctionResponse    *FunctionResponse    `json:"functionResponse,omitempty"`
	FileData            *FileData            `json:"fileData,omitempty"`
	ExecutableCode      *ExecutableCode      `json:"executableCode,omitempty"`
	CodeExecutionResult *CodeExecutionResult `json:"codeExecutionResult,omitempty"`
	Thought             bool                 `json:"thought,omitempty"`
	ThoughtSignature    string               `json:"thoughtSignature,omitempty"`
}

func partToWire(part Part) (partWire, error) {
	wire := partWire{}
	switch typed := part.(type) {
	case TextPart:
		text := typed.Text
		wire.Text = &text
	case InlineDataPart:
		blob := typed.InlineData
		wire.InlineData = &blob
	case FunctionCallPart:
		call := typed.FunctionCall
		wire.FunctionCall = &call
	case FunctionResponsePart:
		response := typed.FunctionResponse
		wire.FunctionResponse = &response
	case FileDataPart:
		file := typed.FileData
		wire.FileData = &file
	case ExecutableCodePart:
		code := typed.ExecutableCode
		wire.ExecutableCode = &code
	case CodeExecutionResultPart:
		result := typed.CodeExecutionResult
		wire.CodeExecutionResult = &result
	case nil:
		return wire, NewError(ErrorCodeInvalidContent, "part is nil")
	default:
		return wire, NewError(ErrorCodeInvalidContent, fmt.Sprintf("unknown part type %T", part))
	}
	meta := part.Meta()
	wire.Thought = meta.Thought
	wire.ThoughtSignature = meta.ThoughtSignature
	return wire, nil
}

func partFromWire(wire partWire) (Part, error) {
	meta := PartMeta{Thought: wire.Thought, ThoughtSignature: wire.ThoughtSignature}

	var found []Part
	if wire.Text != nil {
		found = append(found, TextPart{PartMeta: meta, Text: *wire.Text})
	}
	if wire.InlineData != nil {
		found = append(found, InlineDataPart{PartMeta: meta, InlineData: *wire.InlineData})
	}
	if wire.FunctionCall != nil {
		found = append(found, FunctionCallPart{PartMeta: meta, FunctionCall: *wire.FunctionCall})
	}
	if wire.FunctionResponse != nil {
		found = append(found, FunctionResponsePart{PartMeta: meta, FunctionResponse: *wire.FunctionResponse})
	}
	if wire.FileData != nil {
		found = append(found, FileDataPart{PartMeta: meta, FileData: *wire.FileData})
	}
	if wire.ExecutableCode != nil {
		found = append(found, ExecutableCodePart{PartMeta: meta, ExecutableCode: *wire.ExecutableCode})
	}
	if wire.CodeExecutionResult != nil {
		found = append(found, CodeExecutionResultPart{PartMeta: meta, CodeExecutionResult: *wire.CodeExecutionResult})
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, NewError(ErrorCodeInvalidContent, "part has no data field")
	default:
		return nil, NewError(ErrorCodeInvalidContent, fmt.Sprintf("part has %d data fields, expected exactly one", len(found)))
	}
}

// MarshalPart encodes a single part to its JSON wire form.
func MarshalPart(part Part) ([]byte, error) {
	wire, err := partToWire(part)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

// UnmarshalPart decodes a single part from its JSON wire form.
func UnmarshalPart(data []byte) (Part, error) {
	var wire partWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	return partFromWire(wire)
}

// Parts is a JSON-aware list of [Part] values.
type Parts []Part

func (parts Parts) MarshalJSON() ([]byte, error) {
	if parts == nil {
		return []byte("null"), nil
	}
	wires := make([]partWire, 0, len(parts))
	for _, part := range parts {
		wire, err := partToWire(part)
		if err != nil {
			return nil, err
		}
		wires = append(wires, wire)
	}
	return json.Marshal(wires)
}

func (parts *Parts) UnmarshalJSON(data []byte) error {
	var wires []partWire
	if err := json.Unmarshal(data, &wires); err != nil {
		return err
	}
	if wires == nil {
		*parts = nil
		return nil
	}
	decoded := make(Parts, 0, len(wires))
	for _, wire := range wires {
		part, err := partFromWire(wire)
		if err != nil {
			return err
		}
		decoded = append(decoded, part)
	}
	*parts = decoded
	return nil
}
