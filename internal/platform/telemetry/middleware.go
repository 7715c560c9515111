package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/jsamuelsen/quote-keeper/telemetry"

	// TraceIDHeader carries the trace ID of the request back to the caller.
	TraceIDHeader = "X-Trace-ID"

	unmatchedRoute = "unmatched"
)

// HTTPMetrics holds HTTP server instruments.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates HTTP server instruments on the global meter provider.
func NewHTTPMetrics() (*HTTPMetrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		activeRequests:  activeRequests,
	}, nil
}

// Middleware traces each request with otelgin, records request metrics and
// echoes the trace ID in the X-Trace-ID header.
func Middleware(serviceName string) []gin.HandlerFunc {
	metrics, err := NewHTTPMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return []gin.HandlerFunc{otelgin.Middleware(serviceName), metrics.handler}
}

func (m *HTTPMetrics) handler(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}

	base := []attribute.KeyValue{
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.route", route),
	}

	if m != nil {
		m.activeRequests.Add(ctx, 1, metric.WithAttributes(base...))
		defer m.activeRequests.Add(ctx, -1, metric.WithAttributes(base...))
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
		c.Header(TraceIDHeader, sc.TraceID().String())
	}

	c.Next()

	if m == nil {
		return
	}

	attrs := metric.WithAttributes(append(base, attribute.Int("http.status_code", c.Writer.Status()))...)
	m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	m.requestTotal.Add(ctx, 1, attrs)
}
