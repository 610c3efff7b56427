// Package vanterr is the closed error taxonomy surfaced by the binary
// parser, the protocol engine and the realtime container. Every failure
// that crosses a package boundary in this module is a *vanterr.Error so
// callers can branch on Kind with errors.Is instead of string-matching.
package vanterr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the closed set of failure categories.
type Kind int

const (
	_ Kind = iota
	ClosedConnection
	FailedToSendCommand
	MalformedData
	ParserError
	SerialConnectionError
	DeviceStillConnected
	UnsupportedDeviceModel
	MissingDevicePath
	Timeout
	InvalidSchema
	FailedToWrite
)

func (k Kind) String() string {
	switch k {
	case ClosedConnection:
		return "ClosedConnection"
	case FailedToSendCommand:
		return "FailedToSendCommand"
	case MalformedData:
		return "MalformedData"
	case ParserError:
		return "ParserError"
	case SerialConnectionError:
		return "SerialConnectionError"
	case DeviceStillConnected:
		return "DeviceStillConnected"
	case UnsupportedDeviceModel:
		return "UnsupportedDeviceModel"
	case MissingDevicePath:
		return "MissingDevicePath"
	case Timeout:
		return "Timeout"
	case InvalidSchema:
		return "InvalidSchema"
	case FailedToWrite:
		return "FailedToWrite"
	default:
		return "Unknown"
	}
}

// Error is the concrete type behind every error this module returns across
// a package boundary. Op names the operation that failed (e.g.
// "protocol.WakeUp"); Err, if set, is the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error of the same Kind, so callers can
// write errors.Is(err, vanterr.Timeout) style checks via the Kind helpers
// below, or errors.Is(err, &vanterr.Error{Kind: vanterr.Timeout}) directly.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an *Error for op with no wrapped cause.
func New(kind Kind, op string) error {
	return &Error{Kind: kind, Op: op}
}

// Wrap builds an *Error for op wrapping cause. A nil cause returns nil so
// call sites can do `return vanterr.Wrap(vanterr.Timeout, "op", err)` without
// a separate nil check.
func Wrap(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err, or any error it wraps, is a *Error with the given
// Kind, regardless of how deeply it has been wrapped by fmt.Errorf("%w", ...)
// or by another *Error along the way.
func Is(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
