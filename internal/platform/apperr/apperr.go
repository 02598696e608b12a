// Package apperr defines the error taxonomy shared by every service and
// repository in the API. All recoverable outcomes (missing resources, stale
// version tokens, business-rule conflicts, bad input, idempotency replays)
// are represented as an *Error carrying a Kind; anything else is treated as
// an internal error by the transport layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindVersionMismatch
	KindConflict
	KindValidation
	KindOperationInProgress
	KindReplayedFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindVersionMismatch:
		return "version_mismatch"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindOperationInProgress:
		return "operation_in_progress"
	case KindReplayedFailure:
		return "replayed_failure"
	default:
		return "internal"
	}
}

// Error is a classified error. The message is safe to show to API clients
// for every kind except KindInternal.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the client-facing message without any wrapped cause.
func (e *Error) Message() string { return e.msg }

// New creates a classified error.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error while keeping it available via
// errors.Unwrap.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func VersionMismatch(format string, args ...interface{}) *Error {
	return New(KindVersionMismatch, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func OperationInProgress(format string, args ...interface{}) *Error {
	return New(KindOperationInProgress, format, args...)
}

func ReplayedFailure(format string, args ...interface{}) *Error {
	return New(KindReplayedFailure, format, args...)
}

func Internal(format string, args ...interface{}) *Error {
	return New(KindInternal, format, args...)
}

// KindOf extracts the Kind from err. Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.kind == kind
}
