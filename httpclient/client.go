package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/chatwire/logger"
	"github.com/gaborage/chatwire/trace"
)

const (
	// DefaultTimeout is the default per-attempt deadline
	DefaultTimeout = 8 * time.Second

	// DefaultMaxAttempts is the default total number of attempts
	DefaultMaxAttempts = 2

	// DefaultMaxPayloadLogBytes caps logged body bytes when payload logging is on
	DefaultMaxPayloadLogBytes = 1024
)

var requestValidator = validator.New()

// client implements the Client interface
type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	metrics              *attemptMetrics
	callCount            int64
}

// NewClient creates a new REST client with default configuration
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config        *Config
	logger        logger.Logger
	transport     nethttp.RoundTripper
	meterProvider metric.MeterProvider
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:              DefaultTimeout,
			MaxAttempts:          DefaultMaxAttempts,
			RequestInterceptors:  []RequestInterceptor{},
			ResponseInterceptors: []ResponseInterceptor{},
			DefaultHeaders:       make(map[string]string),
			MaxPayloadLogBytes:   DefaultMaxPayloadLogBytes,
			TraceIDHeader:        HeaderXRequestID,
			NewTraceID:           trace.NewID,
		},
		logger: log,
	}
}

// WithTimeout sets the default per-attempt deadline
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithMaxAttempts sets the default total number of attempts
func (b *Builder) WithMaxAttempts(maxAttempts int) *Builder {
	b.config.MaxAttempts = maxAttempts
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithTransport sets the RoundTripper of the client built by Build
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithPayloadLogging enables debug logging of request and response bodies
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithTraceIDHeader overrides the trace ID header name. Empty keeps the default.
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	if header != "" {
		b.config.TraceIDHeader = header
	}
	return b
}

// WithTraceIDGenerator overrides the trace ID generator. Nil keeps the default.
func (b *Builder) WithTraceIDGenerator(gen func() string) *Builder {
	if gen != nil {
		b.config.NewTraceID = gen
	}
	return b
}

// WithW3CTrace toggles traceparent propagation
func (b *Builder) WithW3CTrace(enabled bool) *Builder {
	b.config.EnableW3CTrace = enabled
	return b
}

// WithAttemptObserver registers a callback invoked after every attempt
func (b *Builder) WithAttemptObserver(observer AttemptObserver) *Builder {
	b.config.OnAttempt = observer
	return b
}

// WithMeterProvider records attempt metrics on the given provider instead of the global one
func (b *Builder) WithMeterProvider(mp metric.MeterProvider) *Builder {
	b.meterProvider = mp
	return b
}

// Build creates the REST client with the configured options. Every client owns
// its *http.Client; attempt deadlines come from Policy, so it has no Timeout.
func (b *Builder) Build() Client {
	return &client{
		httpClient:           &nethttp.Client{Transport: b.transport},
		logger:               b.logger,
		config:               b.config,
		requestInterceptors:  b.config.RequestInterceptors,
		responseInterceptors: b.config.ResponseInterceptors,
		metrics:              newAttemptMetrics(b.meterProvider),
	}
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Do performs an HTTP request with the specified method under the client's
// default policy. On failure the last response received, if any, is returned
// alongside the error.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewValidationError("request cannot be nil", "request")
	}
	withMethod := *req
	withMethod.Method = method

	return c.run(ctx, &withMethod, Policy{Timeout: c.config.Timeout, MaxAttempts: c.config.MaxAttempts}, false)
}

// Execute runs the bounded attempt loop for req. It returns as soon as one
// attempt yields a 2xx response with a valid JSON body. When every attempt
// fails it returns an *ExhaustedError carrying the last attempt's error only.
func (c *client) Execute(ctx context.Context, req *Request, policy Policy) (*Result, error) {
	resp, err := c.run(ctx, req, policy, true)
	if err != nil {
		return nil, err
	}
	return &Result{
		Payload:    json.RawMessage(resp.Body),
		StatusCode: resp.StatusCode,
		Attempts:   resp.Stats.Attempts,
		Elapsed:    resp.Stats.ElapsedTime,
	}, nil
}

// run issues at most policy.MaxAttempts sequential attempts. Attempts follow
// each other without delay.
func (c *client) run(ctx context.Context, req *Request, policy Policy, requireJSON bool) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	ctx = trace.WithTraceID(ctx, c.traceIDFor(ctx, req))
	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)

	var (
		lastResp *Response
		lastErr  ClientError
		attempt  int
	)
	for attempt = 1; attempt <= policy.MaxAttempts; attempt++ {
		c.logRequest(req, attempt, policy)

		attemptStart := time.Now()
		resp, err := c.attempt(ctx, req, policy.Timeout, requireJSON)

		outcome := Attempt{Number: attempt, Elapsed: time.Since(attemptStart)}
		if resp != nil {
			outcome.StatusCode = resp.StatusCode
			resp.Stats = Stats{ElapsedTime: time.Since(start), CallCount: callCount, Attempts: attempt}
		}
		if err != nil {
			outcome.Err = err
		}
		c.observe(ctx, req.Method, outcome)

		if err == nil {
			c.logResponse(resp)
			return resp, nil
		}

		lastResp, lastErr = resp, err
		if IsErrorType(err, InterceptorError) || IsErrorType(err, ValidationError) {
			return resp, err
		}
		c.logAttemptFailure(req, attempt, policy.MaxAttempts, err)

		// A cancelled parent fails every later attempt immediately.
		if ctx.Err() != nil {
			break
		}
	}

	if attempt > policy.MaxAttempts {
		attempt = policy.MaxAttempts
	}
	exhausted := &ExhaustedError{Attempts: attempt, Last: lastErr}
	c.logger.Error().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("attempts", attempt).
		Str("error_type", string(exhausted.Type())).
		Dur("elapsed", time.Since(start)).
		Err(lastErr).
		Msg("REST client retries exhausted")
	return lastResp, exhausted
}

// attempt performs one request/response cycle bounded by timeout. The attempt
// context is cancelled before returning, so nothing from this attempt can
// surface after it has been classified.
func (c *client) attempt(ctx context.Context, req *Request, timeout time.Duration, requireJSON bool) (*Response, ClientError) {
	// budget is the time this attempt really has: the caller's deadline may be
	// closer than the per-attempt one.
	budget := timeout
	if deadline, ok := ctx.Deadline(); ok {
		budget = min(budget, max(time.Until(deadline), 0))
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	deadlines := attemptDeadlines{parent: ctx, attempt: attemptCtx, timeout: timeout, budget: budget}

	httpReq, cerr := c.buildRequest(attemptCtx, req)
	if cerr != nil {
		return nil, cerr
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, deadlines.classify("request execution failed", err)
	}

	resp, cerr := c.buildResponse(attemptCtx, httpReq, httpResp, deadlines)
	if cerr != nil {
		return nil, cerr
	}

	if !IsSuccessStatus(resp.StatusCode) {
		return resp, NewServerRejectedError(
			fmt.Sprintf("request failed with status %d", resp.StatusCode),
			resp.StatusCode,
			resp.Body,
		)
	}
	if requireJSON && !gjson.ValidBytes(resp.Body) {
		return resp, NewParseError("response body is not valid JSON", resp.Body)
	}
	return resp, nil
}

// attemptDeadlines holds the two deadlines bounding one attempt
type attemptDeadlines struct {
	parent  context.Context
	attempt context.Context
	timeout time.Duration
	budget  time.Duration
}

// classify maps a failed round trip or body read to Timeout when a deadline
// elapsed, and to TransportError otherwise. An expired caller deadline is
// reported with the time the attempt had left, not the per-attempt timeout.
func (d attemptDeadlines) classify(message string, err error) ClientError {
	if errors.Is(d.parent.Err(), context.DeadlineExceeded) {
		return NewTimeoutError("caller deadline exceeded", d.budget)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(d.attempt.Err(), context.DeadlineExceeded) {
		return NewTimeoutError("request timeout", d.timeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError("request timeout", d.timeout)
	}
	return NewTransportError(message, err)
}

func validateRequest(req *Request) ClientError {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if err := requestValidator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return NewValidationError(validationMessage(fe), strings.ToLower(fe.Field()))
		}
		return NewValidationError(err.Error(), "")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch {
	case fe.Tag() == "required":
		return fmt.Sprintf("%s cannot be empty", fe.Field())
	case fe.Tag() == "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	case fe.Tag() == "url":
		return fmt.Sprintf("%s must be an absolute URL", fe.Field())
	default:
		return fmt.Sprintf("%s failed validation", fe.Field())
	}
}

func validatePolicy(policy Policy) ClientError {
	if policy.Timeout <= 0 {
		return NewValidationError("timeout must be positive", "timeout")
	}
	if policy.MaxAttempts < 1 {
		return NewValidationError("max attempts must be at least 1", "max_attempts")
	}
	return nil
}

// traceIDFor resolves the trace ID shared by every attempt of one execution:
// an explicit request header wins over the context, which wins over generation.
func (c *client) traceIDFor(ctx context.Context, req *Request) string {
	if id := headerValue(req.Headers, c.config.TraceIDHeader); id != "" {
		return id
	}
	if id, ok := trace.IDFromContext(ctx); ok {
		return id
	}
	return c.config.NewTraceID()
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// applyHeaders applies headers to the HTTP request
func (c *client) applyHeaders(ctx context.Context, httpReq *nethttp.Request, req *Request) {
	// Apply default headers first
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}

	// Apply request-specific headers (these override defaults)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if httpReq.Header.Get("Content-Type") == "" && len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if httpReq.Header.Get(c.config.TraceIDHeader) == "" {
		httpReq.Header.Set(c.config.TraceIDHeader, trace.EnsureTraceID(ctx))
	}

	if c.config.EnableW3CTrace && httpReq.Header.Get(HeaderTraceParent) == "" {
		tp, ok := trace.ParentFromContext(ctx)
		if !ok {
			tp = trace.GenerateTraceParent()
		}
		httpReq.Header.Set(HeaderTraceParent, tp)
	}
}

// buildRequest constructs an *http.Request, applies headers, and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, req *Request) (*nethttp.Request, ClientError) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("failed to create HTTP request: %v", err), "url")
	}

	c.applyHeaders(ctx, httpReq, req)

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, nil
}

// buildResponse runs response interceptors, reads body, and builds a Response.
func (c *client) buildResponse(ctx context.Context, httpReq *nethttp.Request, httpResp *nethttp.Response, deadlines attemptDeadlines) (*Response, ClientError) {
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, deadlines.classify("failed to read response body", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
	}, nil
}

func (c *client) observe(ctx context.Context, method string, attempt Attempt) {
	c.metrics.record(ctx, method, attempt)
	if c.config.OnAttempt != nil {
		c.config.OnAttempt(ctx, attempt)
	}
}

// runRequestInterceptors executes all request interceptors
func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

// logRequest logs the outgoing attempt
func (c *client) logRequest(req *Request, attempt int, policy Policy) {
	logEvent := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL).
		Int("attempt", attempt).
		Int("max_attempts", policy.MaxAttempts).
		Dur("timeout", policy.Timeout)

	if c.config.LogPayloads {
		if len(req.Headers) > 0 {
			logEvent = logEvent.Interface("headers", req.Headers)
		}
		if len(req.Body) > 0 {
			logEvent = logEvent.Bytes("body", c.truncate(req.Body))
		}
	}

	logEvent.Msg("REST client request")
}

// logResponse logs the successful response
func (c *client) logResponse(resp *Response) {
	logEvent := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Int("attempts", resp.Stats.Attempts)

	if c.config.LogPayloads && len(resp.Body) > 0 {
		logEvent = logEvent.Bytes("body", c.truncate(resp.Body))
	}

	logEvent.Msg("REST client response")
}

func (c *client) logAttemptFailure(req *Request, attempt, maxAttempts int, err ClientError) {
	c.logger.Warn().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("attempt", attempt).
		Int("max_attempts", maxAttempts).
		Str("error_type", string(err.Type())).
		Err(err).
		Msg("REST client attempt failed")
}

func (c *client) truncate(body []byte) []byte {
	if c.config.MaxPayloadLogBytes > 0 && len(body) > c.config.MaxPayloadLogBytes {
		return body[:c.config.MaxPayloadLogBytes]
	}
	return body
}
