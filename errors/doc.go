// Package errors provides the structured error type shared by the hyperkit
// packages. Every failure the client surfaces (schema load, unknown types,
// strict filter violations, API failures, conflict exhaustion, wait
// timeouts and transition failures) carries a machine-readable ErrorCode so
// callers can branch with the Is* helpers instead of matching strings.
package errors
