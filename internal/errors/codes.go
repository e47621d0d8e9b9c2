package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type surfaced at the transport boundary.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeRateLimitExceeded indicates the per-client rate limit was hit.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeServiceUnavailable indicates a required collaborator is not configured.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeProviderCallFailed indicates a model, index, or inbox provider call failed.
	// The failure is fatal to the current turn; conversation state is not advanced.
	ErrCodeProviderCallFailed ErrorCode = "PROVIDER_CALL_FAILED"
	// ErrCodeTimeout indicates an external call exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeContextCanceled indicates the caller went away mid-turn.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
)

// Error is a coded error carried to the transport boundary.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a coded error.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around a cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the error code from err, walking the wrap chain.
// Unrecognized errors map to PROVIDER_CALL_FAILED.
func CodeOf(err error) ErrorCode {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ErrCodeProviderCallFailed
}
