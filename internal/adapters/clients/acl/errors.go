package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// maxErrorBody bounds how much of an error response is read for context.
const maxErrorBody = 4 << 10

// ErrorResponse is an error body as returned by common JSON APIs, in
// either nested ({"error":{"message"}}) or flat ({"message"}) form.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorDetail is the nested form of ErrorResponse.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetMessage returns the message from whichever form is populated.
func (e *ErrorResponse) GetMessage() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// ParseErrorResponse decodes an error body. Returns nil when the body is
// empty or carries no message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError maps a failed exchange with a quote source to a
// domain.NetworkError. resp may be nil when clientErr is set.
func MapHTTPError(resp *http.Response, clientErr error, source, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, source, operation)
	}

	if resp == nil {
		return domain.NewNetworkError(source, operation+": no response received")
	}

	reason := fmt.Sprintf("%s: unexpected HTTP %d", operation, resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		reason = operation + ": rate limit exceeded"
	case http.StatusNotFound:
		reason = operation + ": endpoint not found"
	}

	if errResp := ParseErrorResponse(resp.Body); errResp != nil {
		reason += ": " + errResp.GetMessage()
	}

	return domain.NewNetworkError(source, reason)
}

func mapClientError(err error, source, operation string) error {
	if errors.Is(err, clients.ErrCircuitOpen) {
		return domain.NewNetworkError(source, operation+": circuit breaker open")
	}

	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) {
		return domain.NewNetworkError(source,
			fmt.Sprintf("%s: HTTP %d after retries", operation, statusErr.StatusCode))
	}

	return domain.NewNetworkError(source, fmt.Sprintf("%s: %v", operation, err))
}
