package utils

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// chunkedReader hands out its input size bytes at a time.
type chunkedReader struct {
	data []byte
	size int
}

func (reader *chunkedReader) Read(buffer []byte) (int, error) {
	if len(reader.data) == 0 {
		return 0, io.EOF
	}
	n := min(reader.size, len(buffer), len(reader.data))
	copy(buffer, reader.data[:n])
	reader.data = reader.data[n:]
	return n, nil
}

func collectFrames(t *testing.T, reader io.Reader) ([]string, error) {
	t.Helper()
	scanner := NewFrameScanner(reader)
	var payloads []string
	for {
		payload, err := scanner.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return payloads, nil
			}
			return payloads, err
		}
		payloads = append(payloads, payload)
	}
}

// TestFrameScanner_LineEndings verifies that each of the three accepted
// terminators closes a frame.
func TestFrameScanner_LineEndings(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "LF", input: "data: {\"a\":1}\n\ndata: {\"a\":2}\n\n"},
		{name: "CR", input: "data: {\"a\":1}\r\rdata: {\"a\":2}\r\r"},
		{name: "CRLF", input: "data: {\"a\":1}\r\n\r\ndata: {\"a\":2}\r\n\r\n"},
		{name: "Mixed", input: "data: {\"a\":1}\r\n\r\ndata: {\"a\":2}\n\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payloads, err := collectFrames(t, strings.NewReader(test.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(payloads) != 2 || payloads[0] != `{"a":1}` || payloads[1] != `{"a":2}` {
				t.Errorf("payloads = %q", payloads)
			}
		})
	}
}

// TestFrameScanner_ChunkingIndependence verifies that splitting the byte
// stream at every possible size, including one byte at a time through a
// multi-byte UTF-8 payload, yields the same payloads.
func TestFrameScanner_ChunkingIndependence(t *testing.T) {
	input := "data: {\"text\":\"héllo wörld 🔥\"}\r\n\r\ndata: {\"text\":\"second\"}\n\ndata: {\"text\":\"third\"}\r\r"
	want, err := collectFrames(t, strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error on whole input: %v", err)
	}
	if len(want) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(want))
	}

	for size := 1; size <= len(input); size++ {
		got, err := collectFrames(t, &chunkedReader{data: []byte(input), size: size})
		if err != nil {
			t.Fatalf("chunk size %d: unexpected error: %v", size, err)
		}
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Fatalf("chunk size %d: payloads = %q, want %q", size, got, want)
		}
	}
}

// TestFrameScanner_OneByteReader uses the standard library's one-byte reader
// as a second chunking source.
func TestFrameScanner_OneByteReader(t *testing.T) {
	payloads, err := collectFrames(t, iotest.OneByteReader(strings.NewReader("data: x\n\ndata: y\n\n")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(payloads, ",") != "x,y" {
		t.Errorf("payloads = %q", payloads)
	}
}

// TestFrameScanner_EmptyStream verifies that an empty or whitespace-only
// stream ends cleanly.
func TestFrameScanner_EmptyStream(t *testing.T) {
	for _, input := range []string{"", "\n", "\r\n  \n"} {
		payloads, err := collectFrames(t, strings.NewReader(input))
		if err != nil {
			t.Errorf("input %q: unexpected error: %v", input, err)
		}
		if len(payloads) != 0 {
			t.Errorf("input %q: expected no payloads, got %q", input, payloads)
		}
	}
}

// TestFrameScanner_IncompleteRemainder verifies that payloads before a
// truncated frame are still delivered and the truncation is reported.
func TestFrameScanner_IncompleteRemainder(t *testing.T) {
	payloads, err := collectFrames(t, strings.NewReader("data: {\"a\":1}\n\ndata: {\"a\":"))
	if !errors.Is(err, ErrIncompleteFrame) {
		t.Fatalf("expected ErrIncompleteFrame, got %v", err)
	}
	if len(payloads) != 1 || payloads[0] != `{"a":1}` {
		t.Errorf("payloads = %q", payloads)
	}
}

// TestFrameScanner_SingleLineEndingIsIncomplete verifies that one newline
// does not terminate a frame.
func TestFrameScanner_SingleLineEndingIsIncomplete(t *testing.T) {
	_, err := collectFrames(t, strings.NewReader("data: {\"a\":1}\n"))
	if !errors.Is(err, ErrIncompleteFrame) {
		t.Fatalf("expected ErrIncompleteFrame, got %v", err)
	}
}

// TestFrameScanner_ReadError verifies that a transport failure is surfaced
// wrapped rather than being mistaken for the end of the stream.
func TestFrameScanner_ReadError(t *testing.T) {
	readErr := errors.New("connection reset")
	reader := io.MultiReader(strings.NewReader("data: ok\n\n"), iotest.ErrReader(readErr))

	scanner := NewFrameScanner(reader)
	payload, err := scanner.Next()
	if err != nil || payload != "ok" {
		t.Fatalf("first frame = %q, %v", payload, err)
	}
	if _, err = scanner.Next(); !errors.Is(err, readErr) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}
