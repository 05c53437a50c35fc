// ABOUTME: Typed error kinds shared by the environment and the engines
// ABOUTME: Every failure wraps exactly one kind so callers can branch with errors.Is
package audio

import (
	"errors"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrInvalidArgument is returned when a required argument is missing or malformed
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotInitialized is returned when the device backend has not been initialized
	ErrNotInitialized = errors.New("device backend not initialized")
	// ErrEnvironment is returned when the host lacks a usable resource
	ErrEnvironment = errors.New("environment error")
	// ErrInvalidState is returned when an engine is used after release
	ErrInvalidState = errors.New("invalid state")
)

// Error records the operation that failed, its kind and the underlying cause
type Error struct {
	Op   string
	Kind error
	Err  error
}

// NewError builds an *Error. err may be nil.
func NewError(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
