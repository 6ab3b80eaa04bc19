package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies an application-level error class.
type ErrorCode int

const (
	ErrorCode_HTTP_OK         ErrorCode = 0
	ErrorCode_INTERNAL        ErrorCode = 1000
	ErrorCode_INVALID_PAYLOAD ErrorCode = 1001
	ErrorCode_UNAUTHENTICATED ErrorCode = 1002
)

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCode_HTTP_OK:
		return "OK"
	case ErrorCode_INTERNAL:
		return "INTERNAL"
	case ErrorCode_INVALID_PAYLOAD:
		return "INVALID_PAYLOAD"
	case ErrorCode_UNAUTHENTICATED:
		return "UNAUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// AppError is the custom error type carried across the HTTP boundary.
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements the error interface.
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// WithDetail adds a detail to the error.
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// ErrInternal wraps an unexpected failure.
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

// ErrUnauthenticated signals a missing or mismatched bearer token.
// It deliberately carries no detail about the expected secret.
func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

// ErrInvalidPayload signals a request body that could not be parsed.
func ErrInvalidPayload(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid request payload",
	}
}
