package httpclient

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Meter name for client attempt instrumentation
	clientMeterName = "chatwire/httpclient"

	metricClientAttempts        = "chatwire.client.attempts"         // Counter
	metricClientAttemptDuration = "chatwire.client.attempt.duration" // Histogram in seconds

	attrOutcome       = "outcome"
	attrHTTPMethod    = "http.request.method"
	outcomeSuccess    = "success"
	attrAttemptNumber = "attempt"
)

var attemptDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30,
}

// attemptMetrics holds the instruments recording every attempt the executor makes.
// Instruments that failed to initialize stay nil and are skipped.
type attemptMetrics struct {
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

// logMetricError logs a metric initialization error to stderr.
// Metrics failures should not break the client.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize client metric %s: %v\n", metricName, err)
	}
}

func newAttemptMetrics(provider metric.MeterProvider) *attemptMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(clientMeterName)

	m := &attemptMetrics{}
	var err error
	m.attempts, err = meter.Int64Counter(
		metricClientAttempts,
		metric.WithDescription("Number of request attempts made by the chat client"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricClientAttempts, err)

	m.duration, err = meter.Float64Histogram(
		metricClientAttemptDuration,
		metric.WithDescription("Duration of individual request attempts"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(attemptDurationBuckets...),
	)
	logMetricError(metricClientAttemptDuration, err)

	return m
}

func (m *attemptMetrics) record(ctx context.Context, method string, attempt Attempt) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrOutcome, outcomeOf(attempt.Err)),
		attribute.String(attrHTTPMethod, method),
		attribute.Int(attrAttemptNumber, attempt.Number),
	}
	if m.attempts != nil {
		m.attempts.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.duration != nil {
		m.duration.Record(ctx, attempt.Elapsed.Seconds(), metric.WithAttributes(attrs...))
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return string(clientErr.Type())
	}
	return string(TransportError)
}
