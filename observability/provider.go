// Package observability exports chatwire's OpenTelemetry metrics: client
// attempt counters and server request durations. When metrics are disabled
// every operation is a no-op.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"

	"github.com/gaborage/chatwire/config"
)

// Provider owns the meter provider handed to the client and server.
type Provider interface {
	MeterProvider() metric.MeterProvider
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Option customizes a Provider
type Option func(*options)

type options struct {
	writer io.Writer
}

// WithWriter sends stdout exports to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

type provider struct {
	cfg           *config.Config
	opts          options
	meterProvider *sdkmetric.MeterProvider
}

// NewProvider builds the provider described by cfg.Metrics. Disabled metrics
// yield a no-op provider.
func NewProvider(cfg *config.Config, opts ...Option) (Provider, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if !cfg.Metrics.Enabled {
		return newNoopProvider(), nil
	}

	o := options{writer: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	p := &provider{cfg: cfg, opts: o}
	if err := p.initMeterProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	return p, nil
}

// createResource creates an OpenTelemetry resource with service information.
func (p *provider) createResource() (*resource.Resource, error) {
	// No schema URL on our attributes so the merge with the default never conflicts.
	customRes, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(p.cfg.App.Name),
			semconv.ServiceVersion(p.cfg.App.Version),
			semconv.DeploymentEnvironmentName(p.cfg.App.Env),
		),
	)
	if err != nil {
		return nil, err
	}

	return resource.Merge(resource.Default(), customRes)
}

// MeterProvider returns the configured meter provider.
func (p *provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// ForceFlush exports pending measurements immediately.
func (p *provider) ForceFlush(ctx context.Context) error {
	if err := p.meterProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("failed to flush meter provider: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the exporter. Later measurements are dropped.
func (p *provider) Shutdown(ctx context.Context) error {
	if err := p.meterProvider.Shutdown(ctx); err != nil && !errors.Is(err, sdkmetric.ErrReaderShutdown) {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
