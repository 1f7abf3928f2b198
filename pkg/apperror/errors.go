// Package apperror defines the error taxonomy shared by services and handlers.
// Handlers pick an HTTP status from the Kind and show only Message to clients.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidState
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is a classified failure. Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "permission denied"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidState    = &Error{Kind: KindInvalidState, Message: "invalid state"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "already exists"}
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed"}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func InvalidState(message string) *Error    { return New(KindInvalidState, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }

// Validation carries per-field messages as produced by utils.ValidateStruct.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// KindOf reports the Kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
