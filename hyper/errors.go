package hyper

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/httpclient"
)

// APIError is a non-2xx answer from the API, carrying the decoded error
// document when the server sent one. It reports errors.ErrCodeAPI.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    *Object

	cause error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("API error %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// ErrorCode maps every APIError onto errors.ErrCodeAPI.
func (e *APIError) ErrorCode() errors.ErrorCode { return errors.ErrCodeAPI }

func newAPIError(herr *httpclient.Error) *APIError {
	e := &APIError{Status: herr.StatusCode, cause: herr}
	if v, err := Decode(herr.Body); err == nil {
		e.Body, _ = v.(*Object)
	}
	e.Code = e.Body.String("code")
	e.Message = e.Body.String("message")
	if e.Code == "" {
		e.Code = http.StatusText(herr.StatusCode)
	}
	if e.Message == "" && e.Body == nil {
		e.Message = string(herr.Body)
	}
	return e
}

// AsAPIError returns the APIError in err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports an APIError with status 404.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsConflict reports an APIError with status 409.
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

func hasStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == status
}
