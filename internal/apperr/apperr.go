// Package apperr carries the error taxonomy every service returns: the kind
// decides both the HTTP status and whether the message may reach the client.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Validation: malformed or missing input, caller's fault, no transaction started.
	Validation Kind = iota + 1
	// NotFound: referenced wholesaler, invoice, lot, sale or employee does not
	// exist or is soft-deleted. No mutation occurs.
	NotFound
	// Conflict: duplicate lot, oversell, or a mutation against a row that
	// changed underneath the caller. Expected business condition.
	Conflict
	// Integrity: a step inside a transaction that should have succeeded did
	// not. Always rolled back, surfaced as an internal error.
	Integrity
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case Validation:
		return 400
	case NotFound:
		return 404
	case Conflict:
		return 409
	default:
		return 500
	}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: Validation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: Conflict, Msg: fmt.Sprintf(format, args...)}
}

func Integrityf(format string, args ...interface{}) *Error {
	return &Error{Kind: Integrity, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
