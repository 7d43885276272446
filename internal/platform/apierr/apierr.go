package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the caller. Every service operation returns
// either a success payload or an *Error carrying one of these kinds.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindForbidden       Kind = "forbidden"
	KindContentRejected Kind = "content_rejected"
	KindLockedState     Kind = "locked_state"
	KindInvalid         Kind = "invalid"
	KindInternal        Kind = "internal"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NotFound(msg string) *Error        { return New(KindNotFound, msg) }
func Conflict(msg string) *Error        { return New(KindConflict, msg) }
func Forbidden(msg string) *Error       { return New(KindForbidden, msg) }
func ContentRejected(msg string) *Error { return New(KindContentRejected, msg) }
func LockedState(msg string) *Error     { return New(KindLockedState, msg) }
func Invalid(msg string) *Error         { return New(KindInvalid, msg) }
func Internal(msg string, err error) *Error {
	return Wrap(KindInternal, msg, err)
}

// KindOf returns the kind carried by err, or KindInternal when err is not an
// *Error (storage failures, programming defects).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
