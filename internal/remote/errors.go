package remote

import (
	"errors"
	"fmt"
)

// ErrDailyLimitReached is returned when the daily request cap is exhausted.
var ErrDailyLimitReached = errors.New("daily request limit reached")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// TransportError wraps a failure to send a request or read its response,
// including timeouts, cancellation and rate limiting.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
