package server

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	httpMeterName = "chatwire/server"

	metricHTTPRequestDuration = "http.server.request.duration" // Histogram in seconds
	metricHTTPActiveRequests  = "http.server.active_requests"  // UpDownCounter

	attrHTTPRequestMethod  = "http.request.method"
	attrHTTPResponseStatus = "http.response.status_code"
	attrHTTPRoute          = "http.route"
	attrErrorType          = "error.type"
)

var httpDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

type httpMetrics struct {
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

func newHTTPMetrics(provider metric.MeterProvider) *httpMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(httpMeterName)

	m := &httpMetrics{}
	var err error
	m.duration, err = meter.Float64Histogram(
		metricHTTPRequestDuration,
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpDurationBuckets...),
	)
	logMetricError(metricHTTPRequestDuration, err)

	m.active, err = meter.Int64UpDownCounter(
		metricHTTPActiveRequests,
		metric.WithDescription("Number of active HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	logMetricError(metricHTTPActiveRequests, err)

	return m
}

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize HTTP metric %s: %v\n", metricName, err)
	}
}

// HTTPMetrics records request duration and in-flight requests on the given
// provider, or the global one when nil.
func HTTPMetrics(provider metric.MeterProvider) echo.MiddlewareFunc {
	m := newHTTPMetrics(provider)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			method := c.Request().Method
			base := metric.WithAttributes(attribute.String(attrHTTPRequestMethod, method))

			m.addActive(ctx, 1, base)
			start := time.Now()
			err := next(c)
			m.addActive(ctx, -1, base)

			m.recordDuration(ctx, time.Since(start), durationAttributes(method, c.Response().Status, c.Path(), err))
			return err
		}
	}
}

func (m *httpMetrics) addActive(ctx context.Context, delta int64, opt metric.AddOption) {
	if m.active != nil {
		m.active.Add(ctx, delta, opt)
	}
}

func (m *httpMetrics) recordDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m.duration != nil {
		m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	}
}

func durationAttributes(method string, status int, route string, err error) []attribute.KeyValue {
	if route == "" {
		route = "unknown"
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrHTTPRequestMethod, method),
		attribute.Int(attrHTTPResponseStatus, status),
		attribute.String(attrHTTPRoute, route),
	}
	if errorType := classifyHTTPError(status, err); errorType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errorType))
	}
	return attrs
}

// classifyHTTPError returns the status code for 4xx/5xx, "handler_error" for
// an error with a successful status, and "" otherwise.
func classifyHTTPError(status int, err error) string {
	if status >= 400 {
		return strconv.Itoa(status)
	}
	if err != nil {
		return "handler_error"
	}
	return ""
}
