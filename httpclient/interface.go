package httpclient

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/gaborage/chatwire/trace"
)

const (
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = trace.HeaderXRequestID
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = trace.HeaderTraceParent
)

// Client defines the REST client interface for making HTTP requests.
// Every method runs the bounded attempt loop; Execute additionally requires a
// 2xx response carrying a valid JSON payload.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
	Execute(ctx context.Context, req *Request, policy Policy) (*Result, error)
}

// Request describes one outbound request. The client never mutates it; a fresh
// *http.Request is built from it on every attempt.
type Request struct {
	Method  string            `validate:"required,oneof=GET POST PUT PATCH DELETE"`
	URL     string            `validate:"required,url"`
	Headers map[string]string `validate:"-"`
	Body    []byte            `validate:"-"`
}

// Policy bounds an execution: Timeout applies to each attempt independently and
// MaxAttempts is the total number of attempts, the first one included.
type Policy struct {
	Timeout     time.Duration
	MaxAttempts int
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
	Attempts    int
}

// Result is the terminal value of a successful Execute call. Payload is
// guaranteed to be syntactically valid JSON.
type Result struct {
	Payload    json.RawMessage
	StatusCode int
	Attempts   int
	Elapsed    time.Duration
}

// Decode unmarshals the payload into v
func (r *Result) Decode(v any) error {
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return NewParseError(err.Error(), r.Payload)
	}
	return nil
}

// Attempt is the outcome of a single request/response cycle. Err is nil on success.
type Attempt struct {
	Number     int
	StatusCode int
	Elapsed    time.Duration
	Err        error
}

// AttemptObserver is notified after every attempt, before the retry decision
type AttemptObserver func(ctx context.Context, attempt Attempt)

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving the response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the REST client configuration
type Config struct {
	// Timeout is the per-attempt deadline used by Get/Post/Put/Patch/Delete/Do
	Timeout time.Duration
	// MaxAttempts is the total attempt bound used by Get/Post/Put/Patch/Delete/Do
	MaxAttempts          int
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	DefaultHeaders       map[string]string
	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// TraceIDHeader configures the header name used for trace ID propagation (default: X-Request-ID)
	TraceIDHeader string
	// NewTraceID generates a new trace ID when none is present (default: uuid)
	NewTraceID func() string
	// EnableW3CTrace adds a traceparent header when the context carries none
	EnableW3CTrace bool
	// OnAttempt observes every attempt outcome
	OnAttempt AttemptObserver
}

// WithTraceID adds a trace ID to the context for HTTP client propagation
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return trace.WithTraceID(ctx, traceID)
}

// TraceIDFromContext returns a trace ID from context if present
func TraceIDFromContext(ctx context.Context) (string, bool) { return trace.IDFromContext(ctx) }

// NewTraceIDInterceptorFor creates an interceptor that sets the trace ID under a custom header
func NewTraceIDInterceptorFor(header string) RequestInterceptor {
	if header == "" {
		header = HeaderXRequestID
	}
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(header) == "" {
			req.Header.Set(header, trace.EnsureTraceID(ctx))
		}
		return nil
	}
}
