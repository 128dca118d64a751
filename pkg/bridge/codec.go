// Package bridge implements the message boundary between the main context
// and an isolated worker context. Each side owns one end of a pipe of
// unbounded FIFO mailboxes; values cross it encoded by a MessageCodec,
// except for transfer values, which are moved without copying.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageCodec encodes and decodes message payloads.
type MessageCodec interface {
	// Encode converts a Go value to bytes for transmission.
	Encode(value any) ([]byte, error)

	// DecodeInto deserializes bytes into v.
	DecodeInto(data []byte, v any) error
}

// JSONCodec implements MessageCodec using JSON encoding.
type JSONCodec struct{}

// Encode serializes the value to JSON bytes.
func (JSONCodec) Encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

// DecodeInto deserializes JSON bytes into v. Empty data leaves v untouched.
func (JSONCodec) DecodeInto(data []byte, v any) error {
	if len(data) == 0 || v == nil {
		return nil
	}
	return json.Unmarshal(data, v)
}

// DefaultCodec is the codec used when none is configured.
var DefaultCodec MessageCodec = JSONCodec{}

var (
	// ErrClosed indicates the pipe has been closed.
	ErrClosed = errors.New("bridge closed")

	// ErrMethodNotFound indicates the worker has no handler for the method.
	ErrMethodNotFound = errors.New("method not implemented")
)

// CallError is an expected failure returned by a worker handler.
type CallError struct {
	Method  string `json:"method"`
	Message string `json:"message"`
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}
