package utils

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxStringLength is the truncation length used when none is given.
const DefaultMaxStringLength = 500

// JSONToString returns the JSON encoding of object, pretty-printed when
// indent is true. A marshalling failure is rendered as a JSON error object so
// the result is always safe to embed in a message.
func JSONToString(object any, indent ...bool) string {
	var encoded []byte
	var err error
	if len(indent) > 0 && indent[0] {
		encoded, err = json.MarshalIndent(object, "", "  ")
	} else {
		encoded, err = json.Marshal(object)
	}
	if err != nil {
		return "{\"error\": \"failed to marshal to JSON: " + err.Error() + "\"}"
	}
	return string(encoded)
}

// TruncateString shortens s to maxLen bytes and records the original length.
// A non-positive maxLen selects DefaultMaxStringLength.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}
