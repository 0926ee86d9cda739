package constructorio

import (
	"errors"
	"fmt"

	"github.com/donaldgifford/constructorio-go/internal/remote"
)

// Error classes. Every error carried by a Result wraps exactly one of them.
var (
	// ErrTransport means the request never produced a response: connection
	// failure, timeout, cancellation or a local rate limit.
	ErrTransport = errors.New("transport error")
	// ErrServer means the server answered with a non-2xx status.
	ErrServer = errors.New("server error")
	// ErrMalformedResponse means a 2xx body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrInvalidRequest means the request was rejected before sending.
	ErrInvalidRequest = errors.New("invalid request")
)

// StatusError is the server error detail carried by ErrServer results.
type StatusError = remote.StatusError

// Result is the outcome of a content call. Exactly one of Value and Err is
// set.
type Result[T any] struct {
	Value *T
	Err   error
	// ResultID is the server's result_id, used to correlate later tracking
	// events with this response.
	ResultID string
}

// IsError reports whether the call failed.
func (r Result[T]) IsError() bool {
	return r.Err != nil
}

// NetworkError reports whether the call failed in transport or with a
// non-2xx status.
func (r Result[T]) NetworkError() bool {
	return errors.Is(r.Err, ErrTransport) || errors.Is(r.Err, ErrServer)
}

// MalformedResponse reports whether the body could not be decoded.
func (r Result[T]) MalformedResponse() bool {
	return errors.Is(r.Err, ErrMalformedResponse)
}

// StatusCode returns the HTTP status of a server error, or 0.
func (r Result[T]) StatusCode() int {
	var se *remote.StatusError
	if errors.As(r.Err, &se) {
		return se.StatusCode
	}
	return 0
}

// Get returns the value and error as a pair.
func (r Result[T]) Get() (*T, error) {
	return r.Value, r.Err
}

func success[T any](v *T, resultID string) Result[T] {
	return Result[T]{Value: v, ResultID: resultID}
}

func failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// classify wraps err with the error class it belongs to.
func classify(err error) error {
	var (
		statusErr    *remote.StatusError
		transportErr *remote.TransportError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &statusErr):
		return fmt.Errorf("%w: %w", ErrServer, err)
	case errors.As(err, &transportErr):
		return fmt.Errorf("%w: %w", ErrTransport, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
