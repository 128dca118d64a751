// Package errors provides structured error handling for the puzzle host.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindEngine indicates an expected failure reported by a puzzle engine
	// (invalid parameters, unparseable save data, unsolvable state).
	KindEngine
	// KindTransport indicates a failure crossing the isolation boundary.
	KindTransport
	// KindParsing indicates a message or event decoding failure.
	KindParsing
	// KindDrawing indicates a rendering failure in the drawing adapter.
	KindDrawing
	// KindCanvas indicates a host element or canvas lifecycle failure.
	KindCanvas
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindContract indicates a violated usage contract.
	KindContract
)

func (k ErrorKind) String() string {
	switch k {
	case KindEngine:
		return "engine"
	case KindTransport:
		return "transport"
	case KindParsing:
		return "parsing"
	case KindDrawing:
		return "drawing"
	case KindCanvas:
		return "canvas"
	case KindPanic:
		return "panic"
	case KindContract:
		return "contract"
	default:
		return "unknown"
	}
}

// PuzzleError represents a structured error in the puzzle host.
type PuzzleError struct {
	// Op is the operation that failed (e.g., "host.NewGame").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Engine is the engine handle ID, if applicable.
	Engine string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *PuzzleError) Error() string {
	if e.Engine != "" {
		return fmt.Sprintf("%s [%s] engine=%s: %v", e.Op, e.Kind, e.Engine, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *PuzzleError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "host.worker.processKey").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error, so that
// errors.As can find a ContractError raised inside an engine call.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ParseError represents a failure to decode message data.
type ParseError struct {
	// Channel is the message channel or method that carried the data.
	Channel string
	// DataType is the expected type name.
	DataType string
	// Got is the actual data received.
	Got any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from channel %s: got %T", e.DataType, e.Channel, e.Got)
}

// ContractError describes a programming error: an API used outside its
// documented contract. These are raised with panic, never returned.
type ContractError struct {
	// Op is the operation whose contract was violated.
	Op string
	// Message describes the violation.
	Message string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation in %s: %s", e.Op, e.Message)
}

// Contract panics with a ContractError for op.
func Contract(op, format string, args ...any) {
	panic(&ContractError{Op: op, Message: fmt.Sprintf(format, args...)})
}

// ErrorHandler receives errors reported by the puzzle host.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *PuzzleError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
