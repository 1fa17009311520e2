// Package apperr defines the error type shared across worklog packages
package apperr

import "fmt"

// Error is an application error. Package level values act as sentinels and
// errors derived from them with Fmt or Wrap still match through errors.Is.
type Error struct {
	Err     error
	base    *Error
	Message string
	Context []any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel this error was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t == e || (e.base != nil && t == e.base)
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// Fmt formats the message with the provided arguments.
func (e *Error) Fmt(args ...any) *Error {
	return &Error{
		base:    e.root(),
		Err:     e.Err,
		Message: fmt.Sprintf(e.Message, args...),
		Context: args,
	}
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		base:    e.root(),
		Err:     err,
		Message: e.Message,
		Context: e.Context,
	}
}
