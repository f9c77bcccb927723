// Package server is the reference chat backend built on Echo. It exposes the
// endpoints the chat client talks to and is used for local development and
// end-to-end tests.
package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/chatwire/config"
	"github.com/gaborage/chatwire/logger"
)

// Server represents an HTTP server instance with Echo framework.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	logger    logger.Logger
	responder Responder
	basePath  string
	startedAt time.Time
}

// Option customizes a Server
type Option func(*serverOptions)

type serverOptions struct {
	responder     Responder
	meterProvider metric.MeterProvider
}

// WithResponder sets the Responder answering /chat. Default: EchoResponder.
func WithResponder(r Responder) Option {
	return func(o *serverOptions) {
		o.responder = r
	}
}

// WithMeterProvider records HTTP metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *serverOptions) {
		o.meterProvider = mp
	}
}

// normalizeBasePath ensures the base path starts with "/" and doesn't end with "/"
// unless it's the root path. Empty string is returned as-is (no prefix).
func normalizeBasePath(basePath string) string {
	if basePath == "" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if len(basePath) > 1 {
		basePath = strings.TrimRight(basePath, "/")
	}
	return basePath
}

// New creates the chat backend with middlewares, error handling and routes registered.
func New(cfg *config.Config, log logger.Logger, opts ...Option) *Server {
	o := serverOptions{responder: EchoResponder{}}
	for _, opt := range opts {
		opt(&o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg, log)
	}
	e.Validator = NewValidator()

	SetupMiddlewares(e, log, cfg, o.meterProvider)

	s := &Server{
		echo:      e,
		cfg:       cfg,
		logger:    log,
		responder: o.responder,
		basePath:  normalizeBasePath(cfg.Server.Path.Base),
		startedAt: time.Now(),
	}
	s.registerRoutes()

	log.Debug().
		Str("base_path", s.basePath).
		Msg("Server routes configured")

	return s
}

func (s *Server) registerRoutes() {
	g := s.echo.Group(s.basePath)
	g.POST("/chat", s.chat)
	g.POST("/welcome_user", s.welcomeUser)
	g.GET(healthPath, s.healthCheck)
	g.GET(statusPath, s.status)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Address returns the host:port the server listens on.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
}

// Start starts the HTTP server and blocks until it is shut down.
// http.ErrServerClosed is not reported as an error.
func (s *Server) Start() error {
	addr := s.Address()

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server...")

	// Configure echo's own server so Shutdown reaches it.
	server := s.echo.Server
	server.Addr = addr
	server.ReadTimeout = s.cfg.Server.Timeout.Read
	server.WriteTimeout = s.cfg.Server.Timeout.Write

	if err := s.echo.StartServer(server); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func customErrorHandler(err error, c echo.Context, cfg *config.Config, log logger.Logger) {
	if c.Response().Committed {
		return
	}

	var apiErr IAPIError
	if goerrors.As(err, &apiErr) {
		_ = formatErrorResponse(c, apiErr, cfg)
		return
	}

	status := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	switch {
	case goerrors.As(err, &he):
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
	case goerrors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
		msg = "Request timed out"
	}

	if !isDevelopmentEnv(cfg.App.Env) && status == http.StatusInternalServerError {
		msg = "An error occurred while processing your request"
	}

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", safeGetRequestID(c)).
			Msg("Unhandled error")
	}

	base := NewBaseAPIError(statusToErrorCode(status), msg, status)
	if isDevelopmentEnv(cfg.App.Env) {
		_ = base.WithDetails("error", err.Error())
	}

	_ = formatErrorResponse(c, base, cfg)
}

func statusToErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
