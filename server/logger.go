package server

import (
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/chatwire/logger"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// SkipPaths lists route suffixes that are never logged, such as probes.
	SkipPaths []string

	// SlowRequestThreshold marks successful requests slower than this with
	// result_code=WARN. Zero disables slow request detection.
	SlowRequestThreshold time.Duration
}

// LoggerWithConfig logs one summary line per request using OpenTelemetry
// HTTP attribute names. 5xx responses log at error, 4xx at warn.
func LoggerWithConfig(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if slices.ContainsFunc(cfg.SkipPaths, func(p string) bool { return strings.HasSuffix(path, p) }) {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the logged status is final.
				c.Error(err)
			}
			latency := time.Since(start)
			status := c.Response().Status

			level, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)
			event := createLogEvent(log, level)
			if err != nil {
				event = event.Err(err)
			}

			req := c.Request()
			event.
				Str("log.type", "action").
				Str("request_id", safeGetRequestID(c)).
				Str("http.request.method", req.Method).
				Int("http.response.status_code", status).
				Dur("http.server.request.duration", latency).
				Str("url.path", req.URL.Path).
				Str("http.route", c.Path()).
				Str("client.address", c.RealIP()).
				Str("user_agent.original", req.UserAgent()).
				Str("result_code", resultCode).
				Msg(createActionMessage(req.Method, req.URL.Path, latency, status))

			// The error was handled above.
			return nil
		}
	}
}

// determineSeverity calculates log severity and result_code based on HTTP status, latency, and errors.
func determineSeverity(status int, latency, threshold time.Duration, err error) (logLevel, resultCode string) {
	const (
		levelError = "error"
		levelWarn  = "warn"
		levelInfo  = "info"
		codeError  = "ERROR"
		codeWarn   = "WARN"
		codeInfo   = "INFO"
	)

	if status >= 500 || (err != nil && status == 0) {
		return levelError, codeError
	}
	if status >= 400 {
		return levelWarn, codeWarn
	}
	if threshold > 0 && latency > threshold {
		return levelInfo, codeWarn
	}
	return levelInfo, codeInfo
}

func createLogEvent(log logger.Logger, level string) logger.LogEvent {
	switch level {
	case "error":
		return log.Error()
	case "warn":
		return log.Warn()
	default:
		return log.Info()
	}
}

// createActionMessage renders e.g. "POST /chat completed in 12ms with status 2xx".
func createActionMessage(method, path string, latency time.Duration, status int) string {
	return method + " " + path + " completed in " + latency.String() + " with status " + string(rune('0'+status/100)) + "xx"
}
