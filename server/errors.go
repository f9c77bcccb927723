package server

import (
	"maps"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/chatwire/config"
	"github.com/gaborage/chatwire/trace"
)

// IAPIError defines the interface for API errors with structured information.
type IAPIError interface {
	ErrorCode() string
	Message() string
	HTTPStatus() int
	Details() map[string]any
}

// APIResponse is the envelope used for every error response.
type APIResponse struct {
	Error *APIErrorResponse `json:"error,omitempty"`
	Meta  map[string]any    `json:"meta"`
}

// APIErrorResponse represents the error portion of an API response.
type APIErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// BaseAPIError provides a basic implementation of IAPIError.
type BaseAPIError struct {
	code       string
	message    string
	httpStatus int
	details    map[string]any
}

// NewBaseAPIError creates a new base API error.
func NewBaseAPIError(code, message string, httpStatus int) *BaseAPIError {
	return &BaseAPIError{
		code:       code,
		message:    message,
		httpStatus: httpStatus,
		details:    make(map[string]any),
	}
}

// ErrorCode returns the error code.
func (e *BaseAPIError) ErrorCode() string {
	return e.code
}

// Message returns the error message.
func (e *BaseAPIError) Message() string {
	return e.message
}

// HTTPStatus returns the HTTP status code.
func (e *BaseAPIError) HTTPStatus() int {
	return e.httpStatus
}

// Details returns a copy of the error details.
func (e *BaseAPIError) Details() map[string]any {
	if e.details == nil {
		return nil
	}
	return maps.Clone(e.details)
}

// WithDetails adds details to the error.
func (e *BaseAPIError) WithDetails(key string, value any) *BaseAPIError {
	e.details[key] = value
	return e
}

func (e *BaseAPIError) Error() string {
	if e == nil {
		return ""
	}
	if e.code == "" {
		return e.message
	}
	return e.code + ": " + e.message
}

// NewBadRequestError creates a 400 error.
func NewBadRequestError(message string) *BaseAPIError {
	return NewBaseAPIError("BAD_REQUEST", message, http.StatusBadRequest)
}

// NewTooManyRequestsError creates a 429 error.
func NewTooManyRequestsError(message string) *BaseAPIError {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return NewBaseAPIError("TOO_MANY_REQUESTS", message, http.StatusTooManyRequests)
}

var _ IAPIError = (*BaseAPIError)(nil)

// formatErrorResponse writes apiErr as a standardized envelope. Details are
// only included in development.
func formatErrorResponse(c echo.Context, apiErr IAPIError, cfg *config.Config) error {
	errorResp := &APIErrorResponse{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.Message(),
	}
	if cfg != nil && isDevelopmentEnv(cfg.App.Env) {
		if details := apiErr.Details(); len(details) > 0 {
			errorResp.Details = details
		}
	}

	return c.JSON(apiErr.HTTPStatus(), APIResponse{
		Error: errorResp,
		Meta: map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"traceId":   getTraceID(c),
		},
	})
}

// getTraceID returns the trace id attached to the request, preferring the
// inbound header, then the request-id middleware's response header.
func getTraceID(c echo.Context) string {
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if id := safeGetRequestID(c); id != "" {
		return id
	}
	return trace.EnsureTraceID(c.Request().Context())
}

// safeGetRequestID reads the request id from the response, which may be nil
// after a timeout, falling back to the request header.
func safeGetRequestID(c echo.Context) string {
	if resp := c.Response(); resp != nil {
		if id := resp.Header().Get(echo.HeaderXRequestID); id != "" {
			return id
		}
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

const envAliasDev = "dev"

func isDevelopmentEnv(env string) bool {
	return env == config.EnvDevelopment || env == envAliasDev
}
