package httpclient

import (
	"errors"
	"fmt"
	"time"
)

// ClientError represents different types of REST client errors
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	TimeoutError        ErrorType = "timeout"
	ServerRejectedError ErrorType = "server_rejected"
	TransportError      ErrorType = "transport"
	ParseError          ErrorType = "parse"
	ValidationError     ErrorType = "validation"
	InterceptorError    ErrorType = "interceptor"
)

// transportError represents connectivity failures before a response arrived
type transportError struct {
	message string
	wrapped error
}

func (e *transportError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("transport error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("transport error: %s", e.message)
}

func (e *transportError) Type() ErrorType {
	return TransportError
}

func (e *transportError) Unwrap() error {
	return e.wrapped
}

// timeoutError represents an attempt whose deadline elapsed
type timeoutError struct {
	message string
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType {
	return TimeoutError
}

// Timeout returns the per-attempt deadline that elapsed
func (e *timeoutError) Timeout() time.Duration {
	return e.timeout
}

// serverRejectedError represents a response with a non-2xx status
type serverRejectedError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *serverRejectedError) Error() string {
	return fmt.Sprintf("server rejected: %s (status: %d)", e.message, e.statusCode)
}

func (e *serverRejectedError) Type() ErrorType {
	return ServerRejectedError
}

func (e *serverRejectedError) StatusCode() int {
	return e.statusCode
}

func (e *serverRejectedError) Body() []byte {
	return e.body
}

// parseError represents a 2xx response whose body is not valid JSON
type parseError struct {
	message string
	body    []byte
}

func (e *parseError) Error() string {
	return fmt.Sprintf("parse error: %s (%d bytes)", e.message, len(e.body))
}

func (e *parseError) Type() ErrorType {
	return ParseError
}

func (e *parseError) Body() []byte {
	return e.body
}

// validationError represents request validation errors
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// interceptorError represents interceptor-related errors
type interceptorError struct {
	message string
	wrapped error
	stage   string
}

func (e *interceptorError) Error() string {
	return fmt.Sprintf("interceptor error: %s (stage: %s): %v", e.message, e.stage, e.wrapped)
}

func (e *interceptorError) Type() ErrorType {
	return InterceptorError
}

func (e *interceptorError) Unwrap() error {
	return e.wrapped
}

// ExhaustedError is returned when every allowed attempt failed. Only the last
// attempt's error is kept; its type is reported as the exhausted error's type so
// callers can branch on IsErrorType without unwrapping.
type ExhaustedError struct {
	Attempts int
	Last     ClientError
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Type() ErrorType {
	if e.Last == nil {
		return TransportError
	}
	return e.Last.Type()
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// NewTransportError creates a new transport error
func NewTransportError(message string, wrapped error) ClientError {
	return &transportError{
		message: message,
		wrapped: wrapped,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration) ClientError {
	return &timeoutError{
		message: message,
		timeout: timeout,
	}
}

// NewServerRejectedError creates a new error for a non-2xx response
func NewServerRejectedError(message string, statusCode int, body []byte) ClientError {
	return &serverRejectedError{
		message:    message,
		statusCode: statusCode,
		body:       body,
	}
}

// NewParseError creates a new payload parse error
func NewParseError(message string, body []byte) ClientError {
	return &parseError{
		message: message,
		body:    body,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{
		message: message,
		field:   field,
	}
}

// NewInterceptorError creates a new interceptor error
func NewInterceptorError(message, stage string, wrapped error) ClientError {
	return &interceptorError{
		message: message,
		wrapped: wrapped,
		stage:   stage,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsExhausted reports whether err signals that all attempts failed
func IsExhausted(err error) bool {
	var exhausted *ExhaustedError
	return errors.As(err, &exhausted)
}

// IsStatusError checks if an error is a server rejection with a specific status code
func IsStatusError(err error, statusCode int) bool {
	var rejected *serverRejectedError
	if errors.As(err, &rejected) {
		return rejected.StatusCode() == statusCode
	}
	return false
}

// StatusCodeOf returns the HTTP status carried by a server rejection, or 0
func StatusCodeOf(err error) int {
	var rejected *serverRejectedError
	if errors.As(err, &rejected) {
		return rejected.StatusCode()
	}
	return 0
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
