package tvhomerun

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by API calls made before a base URL is set.
	ErrNotConfigured = errors.New("backend url not configured")

	// ErrInitialization matches every *InitializationError via errors.Is.
	ErrInitialization = errors.New("api client initialization failed")

	// ErrNoConfigSource is wrapped when Initialize runs without a ConfigSource.
	ErrNoConfigSource = errors.New("no configuration source")
)

// InitializationError reports a failed configuration fetch. The client stays
// uninitialized, so Initialize may be called again later.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	if e.Err == nil {
		return "initialize api client"
	}
	return fmt.Sprintf("initialize api client: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// Is implements errors.Is for ErrInitialization.
func (e *InitializationError) Is(target error) bool {
	return target == ErrInitialization
}

// HTTPStatusError is returned when the backend answers with a non-2xx status
// on the final attempt.
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.URL, e.StatusCode)
}

// TransportError wraps network failures and per-attempt timeouts.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("execute request %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the attempt was aborted by a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// ParseError is returned when a successful response body is not valid JSON.
// Parse failures are never retried.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status from err, or 0 when err is not an
// *HTTPStatusError.
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
