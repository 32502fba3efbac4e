package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Coordination errors
	ErrHostNotReady     ErrorCode = "HOST_NOT_READY"
	ErrMalformedVersion ErrorCode = "MALFORMED_VERSION"
	ErrNoCandidates     ErrorCode = "NO_CANDIDATES"
	ErrInitFailure      ErrorCode = "INIT_FAILURE"

	// Structural adapter errors
	ErrAdapterMethod ErrorCode = "ADAPTER_METHOD"
	ErrAdapterType   ErrorCode = "ADAPTER_TYPE"
)

// CoordError represents a structured error with code and details
type CoordError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *CoordError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *CoordError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *CoordError) Is(target error) bool {
	var targetErr *CoordError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new CoordError with the given code and message
func New(code ErrorCode, message string) *CoordError {
	return &CoordError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new CoordError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *CoordError {
	return &CoordError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a CoordError
func Wrap(err error, code ErrorCode, message string) *CoordError {
	if err == nil {
		return nil
	}
	return &CoordError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *CoordError {
	if err == nil {
		return nil
	}
	return &CoordError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *CoordError) WithDetail(key string, value interface{}) *CoordError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *CoordError) WithDetails(details map[string]interface{}) *CoordError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var coordErr *CoordError
	if errors.As(err, &coordErr) {
		return coordErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a CoordError
func GetErrorCode(err error) ErrorCode {
	var coordErr *CoordError
	if errors.As(err, &coordErr) {
		return coordErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a CoordError
func GetErrorDetails(err error) map[string]interface{} {
	var coordErr *CoordError
	if errors.As(err, &coordErr) {
		return coordErr.Details
	}
	return nil
}
