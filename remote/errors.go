package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned for 401 responses: the session has
// expired or the credential is invalid. Callers are expected to tear
// down the session; the sync layer only surfaces it distinctly.
var ErrUnauthorized = errors.New("remote: unauthorized")

// NetworkError means no response reached the server: DNS failure,
// refused connection, timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("remote: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a 4xx/5xx response carrying the server's message.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote: server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("remote: server error %d", e.Status)
}

// ValidationError is a 422-style response with per-field messages.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote: validation failed: %s", e.Message)
	}
	return "remote: validation failed"
}

// classifyStatus maps an HTTP status and server message onto the
// error taxonomy. Only called for non-2xx responses.
func classifyStatus(status int, message string, fields map[string]string) error {
	switch {
	case status == http.StatusUnauthorized:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, message)
		}
		return ErrUnauthorized
	case status == http.StatusUnprocessableEntity:
		return &ValidationError{Message: message, Fields: fields}
	default:
		return &ServerError{Status: status, Message: message}
	}
}

// Retryable reports whether an error is a transient network or 5xx
// failure worth a consumer-level retry. Validation and auth failures
// never are.
func Retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return srvErr.Status >= 500
	}
	return false
}
