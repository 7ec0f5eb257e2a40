// Package apperr defines the error taxonomy shared by the store, the
// mutation facade, and the UI: validation, auth, not-found, and store
// failures. The UI never crashes on any of these; it shows a notice and
// lets the user retry.
package apperr

import (
	"errors"
	"fmt"
)

// Class partitions errors by how the UI reacts to them.
type Class int

const (
	// Validation is bad user input. Recovered locally, never retried
	// automatically.
	Validation Class = iota + 1

	// Auth is a missing or expired session. Surfaced by returning to the
	// sign-in surface.
	Auth

	// NotFound is a record that does not exist or is not visible to the
	// current user.
	NotFound

	// Store is a network or backend failure.
	Store
)

func (c Class) String() string {
	switch c {
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	case NotFound:
		return "not found"
	case Store:
		return "store"
	default:
		return "unknown"
	}
}

// Error carries a class, the operation that failed, and an optional cause.
type Error struct {
	Class Class
	Op    string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Class)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given class with a formatted message.
func New(class Class, op, format string, args ...any) *Error {
	return &Error{Class: class, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a class and operation to an underlying error. If err is
// already a classified error, its class is preserved.
func Wrap(class Class, op string, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		class = ae.Class
	}
	return &Error{Class: class, Op: op, Err: err}
}

// ClassOf returns the class of err, or 0 if err is not classified.
func ClassOf(err error) Class {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Class
	}
	return 0
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return ClassOf(err) == Validation }

// IsAuth reports whether err is an auth error.
func IsAuth(err error) bool { return ClassOf(err) == Auth }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return ClassOf(err) == NotFound }

// IsStore reports whether err is a store error.
func IsStore(err error) bool { return ClassOf(err) == Store }
