package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type returned by hyperkit packages.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status code of the response that caused the error, if any.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code, so that
// sentinel values built with New can be matched with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithStatus records the HTTP status that produced the error.
func (e *AppError) WithStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// --- Common Error Constructors ---

// Configuration creates an error for a client that could not be set up.
func Configuration(message string, cause error) *AppError {
	return New(ErrCodeConfiguration, message).WithCause(cause)
}

// UnknownType creates an error for a type that is not present in the schema.
func UnknownType(typeName string) *AppError {
	return Newf(ErrCodeUnknownType, "%s is not a valid type", typeName).
		WithDetail("type", typeName)
}

// InvalidFilter creates an error for a list filter the schema does not declare.
func InvalidFilter(typeName, filter string) *AppError {
	return Newf(ErrCodeInvalidFilter, "%s is not searchable field", filter).
		WithDetails(map[string]any{"type": typeName, "filter": filter})
}

// InvalidInput creates an error for invalid caller input.
func InvalidInput(field, reason string) *AppError {
	err := Newf(ErrCodeInvalidInput, "invalid input: %s", reason)
	if field != "" {
		err.WithDetail("field", field)
	}
	return err
}

// Timeout creates an error for a wait loop that exceeded its deadline.
func Timeout(message string) *AppError {
	return New(ErrCodeTimeout, message)
}

// TransitionFailed creates an error carrying the resource's own transition message.
func TransitionFailed(message string) *AppError {
	return New(ErrCodeTransitionFailed, message)
}

// --- Inspection ---

// coder is implemented by error types outside this package that map onto an ErrorCode.
type coder interface {
	ErrorCode() ErrorCode
}

// CodeOf returns the code of the first coded error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	for err != nil {
		switch e := err.(type) {
		case *AppError:
			return e.Code
		case coder:
			return e.ErrorCode()
		}
		err = stderrors.Unwrap(err)
	}
	return ""
}

// HasCode reports whether err's chain contains an error with the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		switch e := err.(type) {
		case *AppError:
			if e.Code == code {
				return true
			}
		case coder:
			if e.ErrorCode() == code {
				return true
			}
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsConfiguration checks for ErrCodeConfiguration.
func IsConfiguration(err error) bool { return HasCode(err, ErrCodeConfiguration) }

// IsUnknownType checks for ErrCodeUnknownType.
func IsUnknownType(err error) bool { return HasCode(err, ErrCodeUnknownType) }

// IsInvalidFilter checks for ErrCodeInvalidFilter.
func IsInvalidFilter(err error) bool { return HasCode(err, ErrCodeInvalidFilter) }

// IsAPI checks for ErrCodeAPI.
func IsAPI(err error) bool { return HasCode(err, ErrCodeAPI) }

// IsConflictRetryExhausted checks for ErrCodeConflictRetryExhausted.
func IsConflictRetryExhausted(err error) bool { return HasCode(err, ErrCodeConflictRetryExhausted) }

// IsTimeout checks for ErrCodeTimeout.
func IsTimeout(err error) bool { return HasCode(err, ErrCodeTimeout) }

// IsTransitionFailed checks for ErrCodeTransitionFailed.
func IsTransitionFailed(err error) bool { return HasCode(err, ErrCodeTransitionFailed) }

// IsInvalidInput checks for ErrCodeInvalidInput.
func IsInvalidInput(err error) bool { return HasCode(err, ErrCodeInvalidInput) }
