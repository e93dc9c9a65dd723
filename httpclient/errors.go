package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies transport-level failures.
type ErrorCode int

const (
	// ErrCodeTimeout indicates the request deadline passed.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates the server could not be reached.
	ErrCodeConnection
	// ErrCodeAuth indicates a 401 or 403.
	ErrCodeAuth
	// ErrCodeNotFound indicates a 404.
	ErrCodeNotFound
	// ErrCodeConflict indicates a 409. Resource updates race with
	// server-side controllers and are retried on this code.
	ErrCodeConflict
	// ErrCodeRateLimit indicates a 429.
	ErrCodeRateLimit
	// ErrCodeValidation indicates any other 4xx, or a request that could
	// not be built.
	ErrCodeValidation
	// ErrCodeServer indicates a 5xx.
	ErrCodeServer
)

var codeNames = map[ErrorCode]string{
	ErrCodeTimeout:    "timeout",
	ErrCodeConnection: "connection",
	ErrCodeAuth:       "auth",
	ErrCodeNotFound:   "not_found",
	ErrCodeConflict:   "conflict",
	ErrCodeRateLimit:  "rate_limit",
	ErrCodeValidation: "validation",
	ErrCodeServer:     "server",
}

// String returns the error code name.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// Error is a classified transport error. For HTTP-level failures the
// response body is kept so callers can decode the server's own error.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTimeoutError wraps a deadline failure.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError wraps a dial or read failure.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewValidationError reports a request that could not be built.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// ClassifyStatusCode converts a non-2xx status into an *Error and returns
// nil for 2xx.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d %s", statusCode, http.StatusText(statusCode)),
		Body:       body,
	}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusConflict:
		e.Code = ErrCodeConflict
		e.Retryable = true
	case statusCode == http.StatusTooManyRequests:
		e.Code = ErrCodeRateLimit
		e.Retryable = true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	case statusCode >= 500:
		e.Code = ErrCodeServer
		e.Retryable = true
	default:
		e.Code = ErrCodeServer
	}
	return e
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsTimeout checks for ErrCodeTimeout.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsConnection checks for ErrCodeConnection.
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsAuth checks for ErrCodeAuth.
func IsAuth(err error) bool { return hasCode(err, ErrCodeAuth) }

// IsNotFound checks for ErrCodeNotFound.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsConflict checks for ErrCodeConflict.
func IsConflict(err error) bool { return hasCode(err, ErrCodeConflict) }

// IsServerError checks for ErrCodeServer.
func IsServerError(err error) bool { return hasCode(err, ErrCodeServer) }

// IsRetryable reports whether err is a transport error marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
