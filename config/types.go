package config

import "time"

// Config represents the overall application configuration structure.
type Config struct {
	App     AppConfig     `koanf:"app" json:"app" yaml:"app"`
	Server  ServerConfig  `koanf:"server" json:"server" yaml:"server"`
	Log     LogConfig     `koanf:"log" json:"log" yaml:"log"`
	Client  ClientConfig  `koanf:"client" json:"client" yaml:"client"`
	Render  RenderConfig  `koanf:"render" json:"render" yaml:"render"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string     `koanf:"name" json:"name" yaml:"name"`
	Version string     `koanf:"version" json:"version" yaml:"version"`
	Env     string     `koanf:"env" json:"env" yaml:"env"`
	Rate    RateConfig `koanf:"rate" json:"rate" yaml:"rate"`
}

// RateConfig holds per-IP rate limiting settings for the reference backend.
// A Limit of 0 disables limiting.
type RateConfig struct {
	Limit int `koanf:"limit" json:"limit" yaml:"limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host" json:"host" yaml:"host"`
	Port    int           `koanf:"port" json:"port" yaml:"port"`
	Timeout TimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Path    PathConfig    `koanf:"path" json:"path" yaml:"path"`
}

// TimeoutConfig holds various timeout durations for the server.
type TimeoutConfig struct {
	Read       time.Duration `koanf:"read" json:"read" yaml:"read"`
	Write      time.Duration `koanf:"write" json:"write" yaml:"write"`
	Middleware time.Duration `koanf:"middleware" json:"middleware" yaml:"middleware"`
	Shutdown   time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown"`
}

// PathConfig holds URL path settings for the server.
type PathConfig struct {
	Base string `koanf:"base" json:"base" yaml:"base"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// ClientConfig holds the chat client's backend location and attempt policies.
type ClientConfig struct {
	// BaseURL is the backend origin; /chat and /welcome_user are resolved against it.
	BaseURL string `koanf:"baseurl" json:"baseurl" yaml:"baseurl"`
	// Attempts is the total number of attempts per message, the first included.
	Attempts int                 `koanf:"attempts" json:"attempts" yaml:"attempts"`
	Timeout  ClientTimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout"`
	// Payloads enables debug logging of request and response bodies.
	Payloads bool `koanf:"payloads" json:"payloads" yaml:"payloads"`
}

// ClientTimeoutConfig holds per-attempt deadlines by message origin.
type ClientTimeoutConfig struct {
	// Typed applies to free text typed by the user. Default: 15s.
	Typed time.Duration `koanf:"typed" json:"typed" yaml:"typed"`
	// QuickReply applies to suggested replies picked by the user. Default: 8s.
	QuickReply time.Duration `koanf:"quickreply" json:"quickreply" yaml:"quickreply"`
}

// RenderConfig holds the typing effect settings.
type RenderConfig struct {
	// Delay is the pause between typed characters. Zero prints replies at once.
	Delay time.Duration `koanf:"delay" json:"delay" yaml:"delay"`
}

// MetricsConfig controls export of client attempt and server request metrics.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`
	// Endpoint is "stdout" or an OTLP collector address. gRPC takes host:port,
	// HTTP takes host:port or a full URL.
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	// Protocol selects the OTLP transport: "http" or "grpc".
	Protocol string        `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure bool          `koanf:"insecure" json:"insecure" yaml:"insecure"`
	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval"`
}
