// Package sioerr defines the error taxonomy shared by every layer of the
// decoder: graph loading, the slab allocator, the beam-search session
// lifecycle, and the façade. Call sites construct an *Error with the
// matching Kind and let it propagate with github.com/pkg/errors-style
// wrapping; nothing here attempts recovery.
package sioerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Ok is never attached to an *Error; it exists so Kind has a zero value
	// distinct from every failure kind.
	Ok Kind = iota
	InvalidArgument
	MalformedGraph
	IoError
	BadAllocation
	NoRecognitionResult
	PreconditionFailed
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "Ok"
	case InvalidArgument:
		return "InvalidArgument"
	case MalformedGraph:
		return "MalformedGraph"
	case IoError:
		return "IoError"
	case BadAllocation:
		return "BadAllocation"
	case NoRecognitionResult:
		return "NoRecognitionResult"
	case PreconditionFailed:
		return "PreconditionFailed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a Kind-tagged error that keeps its cause chain intact.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap lets errors.Is/errors.As and pkg/errors.Cause see through to the
// underlying cause.
func (e *Error) Unwrap() error { return e.err }

// New builds a bare *Error with no wrapped cause.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, msg: msg}
}

// Newf builds a bare *Error with a formatted message.
func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches Kind to an existing error, preserving its cause chain.
func Wrap(k Kind, err error, msg string) *Error {
	return &Error{Kind: k, msg: msg, err: errors.Wrap(err, msg)}
}

// Wrapf attaches Kind to an existing error with a formatted message.
func Wrapf(k Kind, err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: k, msg: msg, err: errors.Wrap(err, msg)}
}

// Is reports whether err carries the given Kind.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// KindOf extracts the Kind of err, or Ok if err is nil or not a *Error.
func KindOf(err error) Kind {
	if err == nil {
		return Ok
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Ok
}

// Check panics with a PreconditionFailed *Error if cond is false.
// PreconditionFailed marks an assertion a caller violated (a contract
// bug, not a recoverable runtime condition). Check raises it as a panic;
// stt.Session also returns it as an ordinary error value for lifecycle
// misuse such as Push after Flush or Text before Flush.
func Check(cond bool, msg string) {
	if !cond {
		panic(New(PreconditionFailed, msg))
	}
}

// Checkf is Check with a formatted message.
func Checkf(cond bool, format string, args ...any) {
	if !cond {
		panic(Newf(PreconditionFailed, format, args...))
	}
}
