package clcaclient

import (
	"fmt"
	"net/http"
	"time"
)

// IngestError carries everything the retry queue needs to decide what to do
// with a failed send: status code, the Retry-After hint, and the request ids
// on both sides. Nothing is dropped between "failed send" and "queued".
type IngestError struct {
	StatusCode      int
	Message         string
	RequestID       string // X-Request-ID we generated
	RemoteRequestID string // ingest request id reported by CLCA, if any
	RetryAfter      time.Duration
	Err             error
}

func (e *IngestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("clca ingest error: %s", e.Message)
	}
	return fmt.Sprintf("clca ingest error (%d): %s", e.StatusCode, e.Message)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient. Network failures
// (status 0), timeouts (408), throttling (429) and server errors are worth
// retrying; validation and auth failures are not.
func (e *IngestError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// AuthFailure reports a credential problem at the remote end.
func (e *IngestError) AuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
