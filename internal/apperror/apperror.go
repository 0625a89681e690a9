package apperror

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable category of an application error.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindInvalidOperation Kind = "invalid_operation"
	KindUnauthorized     Kind = "unauthorized"
	KindStorage          Kind = "storage_error"
)

// Error carries a Kind, a caller-facing message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	// Partial is set when a multi-record mutation applied its first write
	// but not the second.
	Partial bool
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
func Invalid(msg string) *Error      { return &Error{Kind: KindInvalidOperation, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Storage wraps a persistence failure.
func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// Partial wraps a persistence failure that left one of two records written.
func Partial(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Partial: true, Err: err}
}

// KindOf returns the Kind of err, or KindStorage for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsPartial reports whether err describes a half-applied two-record write.
func IsPartial(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Partial
}
