// Package commands implements the chatwire command line.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/chatwire/chat"
	"github.com/gaborage/chatwire/config"
	"github.com/gaborage/chatwire/httpclient"
	"github.com/gaborage/chatwire/logger"
	"github.com/gaborage/chatwire/observability"
	"github.com/gaborage/chatwire/render"
)

// maxPayloadLogBytes caps logged bodies when client.payloads is enabled
const maxPayloadLogBytes = 2048

// GlobalOptions holds flags shared by every command
type GlobalOptions struct {
	ConfigFile string
	BaseURL    string
	NoColor    bool
}

func (o *GlobalOptions) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.ConfigFile, "config", "c", "", "YAML config file (default: ./config.yaml if present)")
	flags.StringVar(&o.BaseURL, "base-url", "", "Backend origin, overrides client.baseurl")
	flags.BoolVar(&o.NoColor, "no-color", false, "Disable colored sender labels")
}

// loadConfig reads configuration and applies flag overrides. Overridden
// values are validated like the loaded ones.
func (o *GlobalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigFile != "" {
		cfg, err = config.LoadFile(o.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.BaseURL != "" {
		cfg.Client.BaseURL = o.BaseURL
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid --base-url: %w", err)
		}
	}
	return cfg, nil
}

// newLogger writes logs to w so they never interleave with rendered replies.
func newLogger(cfg *config.Config, w io.Writer) logger.Logger {
	return logger.NewWithWriter(w, cfg.Log.Level, cfg.Log.Pretty, nil)
}

// withMetrics runs fn with the configured meter provider and flushes it
// afterwards. Stdout exports go to w.
func withMetrics(cfg *config.Config, w io.Writer, fn func(mp metric.MeterProvider) error) error {
	p, err := observability.NewProvider(cfg, observability.WithWriter(w))
	if err != nil {
		return err
	}

	runErr := fn(p.MeterProvider())
	if err := observability.Shutdown(p, cfg.Server.Timeout.Shutdown); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func newSender(cfg *config.Config, log logger.Logger, mp metric.MeterProvider) *chat.Sender {
	b := httpclient.NewBuilder(log).
		WithTimeout(cfg.Client.Timeout.Typed).
		WithMaxAttempts(cfg.Client.Attempts).
		WithW3CTrace(true).
		WithMeterProvider(mp)
	if cfg.Client.Payloads {
		b = b.WithPayloadLogging(maxPayloadLogBytes)
	}

	return chat.NewSender(b.Build(), cfg.Client.BaseURL, log).
		WithTypedPolicy(httpclient.Policy{Timeout: cfg.Client.Timeout.Typed, MaxAttempts: cfg.Client.Attempts}).
		WithQuickReplyPolicy(httpclient.Policy{Timeout: cfg.Client.Timeout.QuickReply, MaxAttempts: cfg.Client.Attempts})
}

func (o *GlobalOptions) newRenderer(out io.Writer, delay time.Duration) *render.Renderer {
	r := render.New(out, delay)
	if o.NoColor {
		r.Style = render.PlainTheme()
	}
	return r
}
