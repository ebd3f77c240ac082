package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when an authenticated call gets a 401.
	// By then the session has already been cleared.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedResponse is returned when a 2xx body does not match the
	// expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// loginFallback is shown when a failed login carries no server message.
const loginFallback = "Login failed"

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == 401
}

// LoginError is a rejected login. Message is the server's error text or a
// generic fallback, suitable for showing to the user as is.
type LoginError struct {
	StatusCode int
	Message    string
}

func (e *LoginError) Error() string {
	return e.Message
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
