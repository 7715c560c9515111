// Package clients provides the instrumented HTTP client used to reach
// remote quote sources.
package clients

import (
	"errors"
	"fmt"
)

// Transport level failures. The acl package translates them into domain
// network errors.
var (
	// ErrCircuitOpen is returned without contacting the source while the
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last attempt's error once retries
	// are exhausted.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// StatusError is the error of an attempt that got a 5xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %d", e.StatusCode)
}
