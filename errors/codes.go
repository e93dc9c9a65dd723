package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Client setup errors
const (
	// ErrCodeConfiguration indicates the client could not be configured,
	// e.g. the schema failed to load or contained no types.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeInvalidInput indicates a caller supplied invalid input.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnauthorized indicates the credentials were rejected.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Schema lookup errors
const (
	// ErrCodeUnknownType indicates an operation referenced a type missing from the schema.
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"
	// ErrCodeInvalidFilter indicates a strict-mode list filter not declared by the schema.
	ErrCodeInvalidFilter ErrorCode = "INVALID_FILTER"
	// ErrCodeUnknownAction indicates an object does not expose the requested action.
	ErrCodeUnknownAction ErrorCode = "UNKNOWN_ACTION"
	// ErrCodeUnknownLink indicates an object does not expose the requested link.
	ErrCodeUnknownLink ErrorCode = "UNKNOWN_LINK"
)

// Remote errors
const (
	// ErrCodeAPI indicates the server answered with a non-2xx status.
	ErrCodeAPI ErrorCode = "API_ERROR"
	// ErrCodeConflictRetryExhausted indicates a 409 persisted across every retry attempt.
	ErrCodeConflictRetryExhausted ErrorCode = "CONFLICT_RETRY_EXHAUSTED"
	// ErrCodeDecode indicates a response body could not be decoded.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
)

// Waiting errors
const (
	// ErrCodeTimeout indicates a polling loop exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeTransitionFailed indicates a resource settled in a failed transition.
	ErrCodeTransitionFailed ErrorCode = "TRANSITION_FAILED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:                true,
	ErrCodeConflictRetryExhausted: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
