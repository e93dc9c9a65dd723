// Package httpclient is the JSON HTTP transport under the hypermedia client.
//
// An Adapter applies Basic or Bearer credentials, TLS settings and default
// headers, always asks for application/json, and encodes request bodies as
// JSON. Every exchange gets a UUID request ID (sent as X-Request-Id), an
// OpenTelemetry client span and an audit trail: method and URL before
// sending, status and elapsed time after, with pretty-printed bodies at
// debug level.
//
// Non-2xx responses come back together with a classified *Error that keeps
// the response body, so callers can decode the server's error document:
//
//	a, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://rancher.local/v3",
//	    Auth:    httpclient.BearerAuth(token),
//	    TLS:     &httpclient.TLSConfig{Insecure: true},
//	})
//	resp, err := a.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "clusters"})
//	if httpclient.IsConflict(err) {
//	    // retry
//	}
package httpclient
