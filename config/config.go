package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix marks environment variables read as configuration overrides.
	// CHATWIRE_CLIENT_BASEURL maps to client.baseurl.
	EnvPrefix = "CHATWIRE_"

	// DefaultFile is the optional YAML file read by Load
	DefaultFile = "config.yaml"
)

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. config.yaml in the working directory, if present
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	return load(DefaultFile, false)
}

// LoadFile behaves like Load but reads the given YAML file, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":       "chatwire",
		"app.version":    "v1.0.0",
		"app.env":        EnvDevelopment,
		"app.rate.limit": 20,

		"server.host":               "0.0.0.0",
		"server.port":               8080,
		"server.timeout.read":       "15s",
		"server.timeout.write":      "30s",
		"server.timeout.middleware": "12s",
		"server.timeout.shutdown":   "10s",
		"server.path.base":          "",

		"log.level":  "info",
		"log.pretty": false,

		"client.baseurl":            "http://localhost:8080",
		"client.attempts":           2,
		"client.timeout.typed":      "15s",
		"client.timeout.quickreply": "8s",
		"client.payloads":           false,

		"render.delay": "25ms",

		"metrics.enabled":  false,
		"metrics.endpoint": "stdout",
		"metrics.protocol": "http",
		"metrics.insecure": false,
		"metrics.interval": "15s",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
