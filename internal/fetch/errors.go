package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork matches any *NetworkError.
	ErrNetwork = errors.New("network error")

	// ErrHTTPStatus matches any *HTTPStatusError.
	ErrHTTPStatus = errors.New("unexpected http status")
)

// NetworkError reports a transport failure (DNS, connection, timeout, truncated body).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNetwork) true for every NetworkError.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// HTTPStatusError reports a response whose status code is not 2xx.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("failed to fetch %s: HTTP %d", e.URL, e.StatusCode)
}

// Is makes errors.Is(err, ErrHTTPStatus) true for every HTTPStatusError.
func (e *HTTPStatusError) Is(target error) bool { return target == ErrHTTPStatus }
