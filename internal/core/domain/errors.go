package domain

import (
	"errors"
)

// Kind classifies a failure. The HTTP boundary turns a Kind into a status code;
// nothing below it does.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a failure tagged with its Kind and a client-safe message.
// Err holds the underlying cause, if any; it is never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and message, so sentinels
// survive being re-created or wrapped with a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "invalid credentials"}
	ErrInvalidToken       = &Error{Kind: KindUnauthorized, Message: "invalid or expired token"}
	ErrMissingToken       = &Error{Kind: KindUnauthorized, Message: "missing token"}
	ErrInvalidTokenFormat = &Error{Kind: KindUnauthorized, Message: "invalid token format"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "access forbidden"}
	ErrProductNotFound    = &Error{Kind: KindNotFound, Message: "product not found"}
	ErrRequestInProgress  = &Error{Kind: KindConflict, Message: "a request with this idempotency key is still in progress"}
)

// InvalidInput tags a client mistake. msg is returned to the caller verbatim.
func InvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

// Internal tags an infrastructure fault. The cause is kept for logging only.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf reports the Kind of err. Untagged errors are internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message carried by err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal server error"
}
