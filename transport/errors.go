package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrStreamEnded is reported when the server closes an established stream.
var ErrStreamEnded = errors.New("transport: stream ended")

// ErrorCode classifies connection errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates the server did not answer in time.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a network failure or a dropped stream.
	ErrCodeConnection
	// ErrCodeAuth indicates the server rejected the credentials (401/403).
	ErrCodeAuth
	// ErrCodeNotFound indicates the stream endpoint does not exist (404).
	ErrCodeNotFound
	// ErrCodeRateLimit indicates rate limiting (429).
	ErrCodeRateLimit
	// ErrCodeValidation indicates a rejected request (other 4xx).
	ErrCodeValidation
	// ErrCodeServer indicates a server-side error (5xx).
	ErrCodeServer
	// ErrCodeProtocol indicates the response is not an event stream.
	ErrCodeProtocol
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	case ErrCodeProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is a classified connection error.
type Error struct {
	// StatusCode is the HTTP status code (0 for connection-level errors).
	StatusCode int
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Retryable reports whether reconnecting may succeed.
	Retryable bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewProtocolError creates an error for a response that is not an event stream.
func NewProtocolError(statusCode int, contentType string) *Error {
	return &Error{
		StatusCode: statusCode,
		Code:       ErrCodeProtocol,
		Message:    fmt.Sprintf("unexpected content type %q", contentType),
	}
}

// ClassifyStatusCode converts a non-2xx status into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int) *Error {
	e := &Error{StatusCode: statusCode, Message: http.StatusText(statusCode)}
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	case statusCode >= 500:
		e.Code, e.Retryable = ErrCodeServer, true
	default:
		e.Code = ErrCodeProtocol
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", statusCode)
	}
	return e
}

// CodeOf returns the classification of err, or false if err is not an *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// IsAuth checks if an error is an authentication error.
func IsAuth(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeAuth
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeTimeout
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
