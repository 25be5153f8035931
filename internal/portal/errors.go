package portal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrNotFound is returned when a referenced portal object does not exist.
var ErrNotFound = errors.New("not found")

// APIError is a failed portal call: either a non-2xx HTTP status or an
// envelope with a non-zero code.
type APIError struct {
	Method string
	Path   string
	Status int    // HTTP status code
	Code   int    // envelope code; 0 when the body was not an envelope
	Msg    string // envelope err field or response body excerpt
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s %s: portal error %d: %s", e.Method, e.Path, e.Code, e.Msg)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
}

// Temporary reports whether retrying the same call may succeed.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusRequestTimeout ||
		e.Status >= 500
}

// Unauthorized reports whether the token was missing or rejected.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsTemporary reports whether err is worth retrying. Network failures,
// request timeouts and 5xx/429 responses are; envelope errors, other 4xx
// and cancellation are not. Callers still stop once their own context is
// done.
func IsTemporary(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}
