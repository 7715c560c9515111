package dto

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
)

const (
	traceIDKey      = "trace_id"
	requestIDHeader = "X-Request-ID"
)

// MapDomainError maps a domain error to an HTTP status code and error response.
// Unknown errors become a 500 with a generic message.
func MapDomainError(err error) (int, *ErrorResponse) {
	var (
		notFound *domain.NotFoundError
		fieldErr *domain.ValidationError
	)

	switch {
	case err == nil:
		return http.StatusOK, nil

	case IsValidationError(err):
		return http.StatusBadRequest, NewErrorResponseWithDetails(
			ErrorCodeValidation, "request validation failed", ValidationErrors(err))

	case errors.Is(err, ErrBinding):
		return http.StatusBadRequest, NewErrorResponse(ErrorCodeBadRequest, err.Error())

	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())
		if errors.As(err, &fieldErr) && fieldErr.Field != "" {
			resp.Error.Details = map[string]string{fieldErr.Field: fieldErr.Message}
		}

		return http.StatusBadRequest, resp

	case domain.IsFormat(err):
		return http.StatusBadRequest, NewErrorResponse(ErrorCodeFormat, err.Error())

	case errors.As(err, &notFound) && notFound.Entity == "quote":
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNoQuotes, "no quotes available")

	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsNetwork(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, err.Error())

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}
}

// HandleError writes err as an error envelope. Internal errors are logged
// with their full message, which never reaches the client.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	if resp == nil {
		return
	}

	resp.TraceID = GetTraceID(c)

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("internal error",
			slog.Any("error", err),
			slog.String("trace_id", resp.TraceID),
		)
	}

	_ = c.Error(err)
	c.JSON(status, resp)
}

// AbortWithError is HandleError for middleware: it stops the chain.
func AbortWithError(c *gin.Context, err error) {
	HandleError(c, err)
	c.Abort()
}

// RespondWithErrorCode writes an error that did not come from the domain,
// e.g. a malformed cursor.
func RespondWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message)
	resp.TraceID = GetTraceID(c)

	c.JSON(HTTPStatusFromCode(code), resp)
}

// GetTraceID returns the ID used to correlate an error response with logs:
// an explicit trace_id on the gin context, then the active span, then the
// request ID header.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(traceIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}

		return ""
	}

	if c.Request == nil {
		return ""
	}

	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return c.GetHeader(requestIDHeader)
}
