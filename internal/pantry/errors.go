package pantry

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for any non-2xx answer other than a 404 on read.
// Callers can use errors.As to recover the upstream status:
//
//	var statusErr *pantry.StatusError
//	if errors.As(err, &statusErr) && statusErr.StatusCode == 429 { ... }
type StatusError struct {
	Method     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Pantry %s failed: %d", e.Method, e.StatusCode)
}

// IsStatus reports whether err carries the given upstream status code.
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == status
	}
	return false
}

// IsRateLimited reports whether the upstream rejected the call for rate limiting.
func IsRateLimited(err error) bool {
	return IsStatus(err, http.StatusTooManyRequests)
}
