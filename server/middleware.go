package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/chatwire/config"
	"github.com/gaborage/chatwire/logger"
)

const (
	healthPath = "/health"
	statusPath = "/status"

	bodyLimit = "1M"
)

// SetupMiddlewares registers the middleware chain on e: request id, trace
// context, metrics, CORS, request logging, panic recovery, security headers,
// body limit, request deadline, per-IP rate limiting and response timing.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config, mp metric.MeterProvider) {
	e.Use(middleware.RequestID())

	e.Use(TraceContext())

	e.Use(HTTPMetrics(mp))

	e.Use(CORS())

	e.Use(LoggerWithConfig(log, LoggerConfig{
		SkipPaths:            []string{healthPath},
		SlowRequestThreshold: time.Second,
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", safeGetRequestID(c)).
				Bytes("stack", stack).
				Msg("Panic recovered")
			return err
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ContentSecurityPolicy: "default-src 'self'",
	}))

	e.Use(middleware.BodyLimit(bodyLimit))

	e.Use(Timeout(cfg.Server.Timeout.Middleware))

	e.Use(RateLimit(cfg.App.Rate.Limit))

	e.Use(Timing())
}
