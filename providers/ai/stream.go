package ai

import (
	"context"
	"iter"
)

// GenerateContentStream is the result of a streaming generation. Iter yields
// enriched partial responses as frames arrive; Response waits for the stream
// to finish and returns the aggregate of every frame.
//
// The two views are independent: breaking out of Iter early does not stop
// the underlying read, and Response can be called without ever iterating.
type GenerateContentStream struct {
	iterator iter.Seq2[*EnhancedResponse, error]
	response func(ctx context.Context) (*EnhancedResponse, error)
}

// NewGenerateContentStream assembles a stream from its two views.
func NewGenerateContentStream(
	iterator iter.Seq2[*EnhancedResponse, error],
	response func(ctx context.Context) (*EnhancedResponse, error),
) *GenerateContentStream {
	return &GenerateContentStream{iterator: iterator, response: response}
}

// NewSingleResponseStream wraps a complete response as a one-frame stream.
func NewSingleResponseStream(response *EnhancedResponse) *GenerateContentStream {
	return NewGenerateContentStream(
		func(yield func(*EnhancedResponse, error) bool) {
			yield(response, nil)
		},
		func(context.Context) (*EnhancedResponse, error) {
			return response, nil
		},
	)
}

// Iter returns the live sequence of partial responses.
//
// Example:
//
//	for chunk, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    text, _ := chunk.Text()
//	    fmt.Print(text)
//	}
func (stream *GenerateContentStream) Iter() iter.Seq2[*EnhancedResponse, error] {
	return stream.iterator
}

// Response blocks until the stream is exhausted and returns the aggregated
// response, or the error that terminated the stream.
func (stream *GenerateContentStream) Response(ctx context.Context) (*EnhancedResponse, error) {
	return stream.response(ctx)
}
