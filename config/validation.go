package config

import (
	"fmt"
	"net/url"
	"slices"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var (
	validLogLevels       = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	validMetricProtocols = []string{"http", "grpc"}
)

// Validate checks every section and returns the first failure found.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}

	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	if err := validateClient(&cfg.Client); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	if cfg.Render.Delay < 0 {
		return fmt.Errorf("render config: %w", NewInvalidFieldError("render.delay", "must not be negative", nil))
	}

	if err := validateMetrics(&cfg.Metrics); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	return nil
}

func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("invalid environment: %s", cfg.Env), validEnvs)
	}

	if cfg.Rate.Limit < 0 {
		return NewInvalidFieldError("app.rate.limit", "must not be negative", nil)
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return NewInvalidFieldError("server.port", fmt.Sprintf("invalid port: %d (must be 1-65535)", cfg.Port), nil)
	}

	if cfg.Timeout.Read <= 0 {
		return NewInvalidFieldError("server.timeout.read", "must be positive", nil)
	}

	if cfg.Timeout.Write <= 0 {
		return NewInvalidFieldError("server.timeout.write", "must be positive", nil)
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	if !slices.Contains(validLogLevels, cfg.Level) {
		return NewInvalidFieldError("log.level", fmt.Sprintf("invalid log level: %s", cfg.Level), validLogLevels)
	}
	return nil
}

func validateClient(cfg *ClientConfig) error {
	if cfg.BaseURL == "" {
		return NewMissingFieldError("client.baseurl")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewInvalidFieldError("client.baseurl", fmt.Sprintf("not an absolute url: %s", cfg.BaseURL), nil)
	}

	if cfg.Attempts < 1 {
		return NewInvalidFieldError("client.attempts", "must be at least 1", nil)
	}

	if cfg.Timeout.Typed <= 0 {
		return NewInvalidFieldError("client.timeout.typed", "must be positive", nil)
	}

	if cfg.Timeout.QuickReply <= 0 {
		return NewInvalidFieldError("client.timeout.quickreply", "must be positive", nil)
	}

	return nil
}

func validateMetrics(cfg *MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.Endpoint == "" {
		return NewMissingFieldError("metrics.endpoint")
	}

	if !slices.Contains(validMetricProtocols, cfg.Protocol) {
		return NewInvalidFieldError("metrics.protocol", fmt.Sprintf("invalid protocol: %s", cfg.Protocol), validMetricProtocols)
	}

	if cfg.Interval <= 0 {
		return NewInvalidFieldError("metrics.interval", "must be positive", nil)
	}

	return nil
}
