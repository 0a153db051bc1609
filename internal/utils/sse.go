package utils

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// maxFrameBufferSize bounds the bytes held while waiting for a frame
// terminator (16 MB). Frames carrying inline images can be large.
const maxFrameBufferSize = 16 * 1024 * 1024

// frameReadSize is the chunk size requested from the underlying reader.
const frameReadSize = 32 * 1024

// ErrIncompleteFrame is returned when the stream ends with bytes that do not
// form a complete "data: " frame.
var ErrIncompleteFrame = errors.New("stream ended with an incomplete frame")

// ErrFrameTooLarge is returned when no frame terminator is found within
// maxFrameBufferSize bytes.
var ErrFrameTooLarge = errors.New("stream frame exceeds maximum buffer size")

// A frame is one "data: " line followed by a blank line. All three line
// ending styles are accepted.
var framePattern = regexp.MustCompile(`^data: ([^\r\n]*)(?:\n\n|\r\r|\r\n\r\n)`)

// FrameScanner splits a server-sent event byte stream into data payloads.
//
// Bytes are accumulated until the buffer starts with a complete frame, so the
// result does not depend on how the reader chunks its output. Delimiters are
// ASCII, which keeps multi-byte UTF-8 sequences intact across chunk
// boundaries.
type FrameScanner struct {
	reader io.Reader
	buffer []byte
	chunk  []byte
	eof    bool
}

// NewFrameScanner creates a FrameScanner reading from reader.
func NewFrameScanner(reader io.Reader) *FrameScanner {
	return &FrameScanner{
		reader: reader,
		chunk:  make([]byte, frameReadSize),
	}
}

// Next returns the payload of the next frame. It returns io.EOF when the
// stream ended cleanly and ErrIncompleteFrame when it ended with a non-blank
// remainder. Read errors other than io.EOF are returned wrapped.
func (scanner *FrameScanner) Next() (string, error) {
	for {
		if match := framePattern.FindSubmatchIndex(scanner.buffer); match != nil {
			payload := string(scanner.buffer[match[2]:match[3]])
			scanner.buffer = scanner.buffer[match[1]:]
			return payload, nil
		}

		if scanner.eof {
			if strings.TrimSpace(string(scanner.buffer)) != "" {
				return "", ErrIncompleteFrame
			}
			scanner.buffer = nil
			return "", io.EOF
		}

		if len(scanner.buffer) > maxFrameBufferSize {
			return "", ErrFrameTooLarge
		}

		n, err := scanner.reader.Read(scanner.chunk)
		scanner.buffer = append(scanner.buffer, scanner.chunk[:n]...)
		if errors.Is(err, io.EOF) {
			scanner.eof = true
		} else if err != nil {
			return "", fmt.Errorf("stream read error: %w", err)
		}
	}
}
