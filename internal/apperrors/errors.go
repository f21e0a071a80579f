package apperrors

import "errors"

// Error is the domain error type carried by every core operation.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable detail
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Kind returns the taxonomy group of the error code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Storage wraps a storage failure unless it already carries a domain code.
func Storage(message string, cause error) error {
	if cause == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(cause, &domainErr) {
		return cause
	}
	return Wrap(CodeStorage, message, cause)
}

// CodeOf extracts the domain code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// KindOf extracts the taxonomy group from err.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}
