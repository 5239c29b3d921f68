package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the request is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeStreamUnavailable indicates no live stream connection exists.
	ErrCodeStreamUnavailable ErrorCode = "STREAM_UNAVAILABLE"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStreamUnavailable: true,
}

// IsRetryableCode reports whether a request failing with code may succeed
// later without changes.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
