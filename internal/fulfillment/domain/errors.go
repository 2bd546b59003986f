package domain

import "errors"

// ErrorKind classifies a failure into the stable taxonomy callers branch on.
// The transport layer maps kinds to HTTP status codes; the kinds themselves
// never change even if messages do.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindForbidden         ErrorKind = "forbidden"
	KindUnauthenticated   ErrorKind = "unauthenticated"
	KindValidation        ErrorKind = "validation_error"
	KindPersistence       ErrorKind = "persistence_error"
)

// Error is the structured error returned by every operation of this core.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// E builds a new Error with the given kind and message.
func E(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that carries an underlying cause. Used mainly to
// surface storage failures as KindPersistence without masking them.
func Wrap(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the ErrorKind from err. Errors that did not originate in
// this core are reported as KindPersistence, the only kind allowed to come
// from below.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindPersistence
}
