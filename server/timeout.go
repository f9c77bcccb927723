package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// Timeout bounds each request with a context deadline. The response writer is
// left in place; when the deadline fires the context error is returned and the
// central error handler answers 503.
func Timeout(duration time.Duration) echo.MiddlewareFunc {
	if duration <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			parent := c.Request().Context()
			if err := parent.Err(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(parent, duration)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if ctxErr := ctx.Err(); ctxErr != nil && !c.Response().Committed {
				return ctxErr
			}
			return err
		}
	}
}
