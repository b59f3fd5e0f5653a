// Package apierr defines the single error envelope that crosses every operation boundary.
package apierr

import (
	"errors"
	"fmt"
)

// Code is the enumerated error code carried by an Error.
type Code string

const (
	// Validation marks a malformed request, caught before any engine access.
	Validation Code = "VALIDATION"
	// Unsupported marks a recognized but unimplemented capability.
	Unsupported Code = "UNSUPPORTED"
	// NotFound marks a referenced handle, table or connection that does not exist.
	NotFound Code = "NOT_FOUND"
	// IOError marks a filesystem access failure.
	IOError Code = "IO_ERROR"
	// Internal marks an unclassified engine or runtime failure.
	Internal Code = "INTERNAL"
)

// Sentinel errors matched by errors.Is against an Error of the same code.
var (
	ErrValidation  = errors.New("validation failed")
	ErrUnsupported = errors.New("unsupported")
	ErrNotFound    = errors.New("not found")
	ErrIO          = errors.New("io error")
	ErrInternal    = errors.New("internal error")
)

// Error is the ApiError shape: {code, message, details?}.
type Error struct {
	Code    Code           `json:"code" yaml:"code"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`

	// Cause is the underlying error. It never crosses the boundary.
	Cause error `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case Validation:
		return target == ErrValidation
	case Unsupported:
		return target == ErrUnsupported
	case NotFound:
		return target == ErrNotFound
	case IOError:
		return target == ErrIO
	case Internal:
		return target == ErrInternal
	}
	return false
}

// ErrorCode returns the code as a plain string.
func (e *Error) ErrorCode() string { return string(e.Code) }

// ErrorMessage returns the human-readable message.
func (e *Error) ErrorMessage() string { return e.Message }

// WithDetail returns the error with one more detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// New creates an Error with the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that keeps cause for errors.Is/As inside the process.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{Code: code, Message: msg, Cause: cause}
}

// NewValidation creates a VALIDATION error pointing at path.
func NewValidation(path, format string, args ...any) *Error {
	err := New(Validation, format, args...)
	if path != "" {
		err.WithDetail("path", path)
	}
	return err
}

// NewUnsupported creates an UNSUPPORTED error for a named capability.
func NewUnsupported(capability, format string, args ...any) *Error {
	return New(Unsupported, format, args...).WithDetail("capability", capability)
}

// NewNotFound creates a NOT_FOUND error for a kind of resource.
func NewNotFound(kind, name string) *Error {
	return New(NotFound, "%s %q not found", kind, name).WithDetail(kind, name)
}

// Shaped is satisfied by any error that already carries a code and a message.
type Shaped interface {
	error
	ErrorCode() string
	ErrorMessage() string
}

// Normalize maps any failure to an *Error. Already-shaped errors pass through unchanged,
// anything else becomes INTERNAL with the stringified failure as message.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var shaped Shaped
	if errors.As(err, &shaped) {
		return &Error{
			Code:    Code(shaped.ErrorCode()),
			Message: shaped.ErrorMessage(),
			Cause:   err,
		}
	}

	return &Error{Code: Internal, Message: err.Error(), Cause: err}
}

// CodeOf returns the code of err after normalization, or "" for nil.
func CodeOf(err error) Code {
	if n := Normalize(err); n != nil {
		return n.Code
	}
	return ""
}

// Is reports whether err normalizes to the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
