package server

import (
	"github.com/labstack/echo/v4"

	"github.com/gaborage/chatwire/trace"
)

// TraceContext copies the request id and an inbound traceparent into the
// request context so handlers can propagate them on outbound calls. A request
// without X-Request-ID takes the id assigned by the request-id middleware.
func TraceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Header.Get(trace.HeaderXRequestID) == "" {
				if id := safeGetRequestID(c); id != "" {
					req.Header.Set(trace.HeaderXRequestID, id)
				}
			}
			c.SetRequest(req.WithContext(trace.FromHeaders(req.Context(), req.Header)))
			return next(c)
		}
	}
}
