package server

import (
	"time"

	"github.com/labstack/echo/v4"
)

// HeaderXResponseTime reports how long the handler chain took.
const HeaderXResponseTime = "X-Response-Time"

// Timing sets X-Response-Time before the response is written.
func Timing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Response().Before(func() {
				c.Response().Header().Set(HeaderXResponseTime, time.Since(start).String())
			})
			return next(c)
		}
	}
}
