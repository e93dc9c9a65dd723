package httpclient

import (
	"net/http"
	"net/url"
)

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// Path is appended to BaseURL, or used as-is when it is an absolute URL.
	Path string
	// Query is merged into any query string already present in Path.
	Query url.Values
	// Headers override the adapter defaults.
	Headers map[string]string
	// Body is sent as-is for []byte and string and JSON-encoded otherwise.
	Body any
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// RequestID is the X-Request-Id sent with the request.
	RequestID string
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
