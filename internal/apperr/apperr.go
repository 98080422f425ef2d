// Package apperr defines the error kinds surfaced to the command layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the user.
type Kind string

const (
	Validation           Kind = "validation"
	NotFound             Kind = "not found"
	State                Kind = "state"
	ConfirmationRequired Kind = "confirmation required"
	Format               Kind = "format"
)

// Error is a classified error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func Validationf(format string, args ...any) *Error { return New(Validation, format, args...) }
func NotFoundf(format string, args ...any) *Error   { return New(NotFound, format, args...) }
func Statef(format string, args ...any) *Error      { return New(State, format, args...) }
func Formatf(format string, args ...any) *Error     { return New(Format, format, args...) }

// Confirm is returned when a destructive operation runs without confirmation.
func Confirm(action string) *Error {
	return New(ConfirmationRequired, "%s is destructive; re-run with --yes to confirm", action)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
