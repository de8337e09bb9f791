// Package apperr implements the engine's error taxonomy. Every failure
// that crosses a package boundary is wrapped in an *Error carrying a
// Kind so callers can branch on cause without string matching, and a
// go-xerrors cause so logs keep the originating stack frame.
package apperr

import (
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

// Kind classifies a failure per spec.md §7.
type Kind string

const (
	InvalidInput     Kind = "invalid_input"
	DecodeFailure    Kind = "decode_failure"
	Timeout          Kind = "timeout"
	DuplicateTrack   Kind = "duplicate_track"
	IndexUnavailable Kind = "index_unavailable"
	InternalNumeric  Kind = "internal_numeric"
	NotFound         Kind = "not_found"
)

// Error pairs a Kind with the underlying cause. The cause is always a
// go-xerrors error so %+v formatting on it surfaces a stack trace
// rooted at the call site that produced the failure.
type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error with a fresh stack trace rooted at the call site.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, cause: xerrors.New(msg)}
}

// Wrap attaches a Kind to an existing error, preserving its stack if it
// already carries one. cause itself is kept reachable through Unwrap —
// never flattened into a string — so errors.Is/errors.As against a
// sentinel like context.DeadlineExceeded still work after crossing this
// boundary.
func Wrap(kind Kind, msg string, cause error) *Error {
	if cause == nil {
		return New(kind, msg)
	}
	return &Error{Kind: kind, Msg: msg, cause: xerrors.New(cause)}
}

// Is reports whether err (or a wrapped cause) is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to InternalNumeric for
// errors that never went through this package. The HTTP layer answers
// that kind with a 500; it does not turn it into a no-match result.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalNumeric
}
