package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/gaborage/chatwire/config"
	"github.com/gaborage/chatwire/logger"
	"github.com/gaborage/chatwire/server"
)

// ServeOptions holds options for the serve command
type ServeOptions struct {
	Host string
	Port int
}

// NewServeCommand creates the serve command
func NewServeCommand(global *GlobalOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference chat backend",
		Long: `Starts the reference backend serving /chat, /welcome_user, /health and /status.

The backend echoes messages back and is meant for local development.
It stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = opts.Host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = opts.Port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := newLogger(cfg, cmd.ErrOrStderr())
			return withMetrics(cfg, cmd.ErrOrStderr(), func(mp metric.MeterProvider) error {
				return runServe(ctx, cfg, log, server.New(cfg, log, server.WithMeterProvider(mp)))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Listen host, overrides server.host")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Listen port, overrides server.port")

	return cmd
}

// runServe serves until ctx is done or the listener fails, then shuts down
// within cfg.Server.Timeout.Shutdown.
func runServe(ctx context.Context, cfg *config.Config, log logger.Logger, srv *server.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-gctx.Done()
		log.Info().
			Dur("timeout", cfg.Server.Timeout.Shutdown).
			Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout(cfg))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.Timeout.Shutdown > 0 {
		return cfg.Server.Timeout.Shutdown
	}
	return 10 * time.Second
}
