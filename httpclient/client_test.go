package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/chatwire/logger"
)

const (
	testCustomTrace = "custom-trace-123"
	testJSONType    = "application/json"
	testContentType = "Content-Type"
)

func createTestLogger() logger.Logger {
	return logger.Nop()
}

func newIPv4TestServer(t *testing.T, handler nethttp.Handler) *httptest.Server {
	t.Helper()
	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: unable to bind IPv4 listener: %v", err)
		return &httptest.Server{}
	}

	server := &httptest.Server{
		Listener: listener,
		Config:   &nethttp.Server{Handler: handler},
	}
	server.Start()
	return server
}

// scriptedServer answers each request with the next entry of statuses; the
// last entry repeats once the script runs out.
func scriptedServer(t *testing.T, statuses []int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		n := int(calls.Add(1))
		status := statuses[min(n, len(statuses))-1]
		w.Header().Set(testContentType, testJSONType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	return server, &calls
}

// slowServer holds every request for hold or until the client goes away.
func slowServer(t *testing.T, hold time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
		select {
		case <-time.After(hold):
			_, _ = io.WriteString(w, `{"response":"too late"}`)
		case <-r.Context().Done():
		}
	}))
	return server, &calls
}

type roundTripperFunc func(*nethttp.Request) (*nethttp.Response, error)

func (f roundTripperFunc) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	return f(req)
}

func postTo(url string) *Request {
	return &Request{Method: nethttp.MethodPost, URL: url, Body: []byte(`{"message":"hola"}`)}
}

func TestNewClient(t *testing.T) {
	assert.NotNil(t, NewClient(createTestLogger()))
}

func TestBuilder(t *testing.T) {
	log := createTestLogger()

	t.Run("defaults", func(t *testing.T) {
		b := NewBuilder(log)
		assert.Equal(t, DefaultTimeout, b.config.Timeout)
		assert.Equal(t, DefaultMaxAttempts, b.config.MaxAttempts)
		assert.Equal(t, HeaderXRequestID, b.config.TraceIDHeader)
		assert.Equal(t, DefaultMaxPayloadLogBytes, b.config.MaxPayloadLogBytes)
		assert.NotNil(t, b.config.NewTraceID)
	})

	t.Run("options", func(t *testing.T) {
		observer := func(context.Context, Attempt) {}
		b := NewBuilder(log).
			WithTimeout(3*time.Second).
			WithMaxAttempts(4).
			WithDefaultHeader("X-App", "chatwire").
			WithPayloadLogging(64).
			WithTraceIDHeader("X-Trace-ID").
			WithTraceIDGenerator(func() string { return "fixed" }).
			WithW3CTrace(true).
			WithAttemptObserver(observer)

		assert.Equal(t, 3*time.Second, b.config.Timeout)
		assert.Equal(t, 4, b.config.MaxAttempts)
		assert.Equal(t, "chatwire", b.config.DefaultHeaders["X-App"])
		assert.True(t, b.config.LogPayloads)
		assert.Equal(t, 64, b.config.MaxPayloadLogBytes)
		assert.Equal(t, "X-Trace-ID", b.config.TraceIDHeader)
		assert.Equal(t, "fixed", b.config.NewTraceID())
		assert.True(t, b.config.EnableW3CTrace)
		assert.NotNil(t, b.config.OnAttempt)
	})

	t.Run("empty overrides keep defaults", func(t *testing.T) {
		b := NewBuilder(log).WithTraceIDHeader("").WithTraceIDGenerator(nil).WithPayloadLogging(0)
		assert.Equal(t, HeaderXRequestID, b.config.TraceIDHeader)
		assert.NotNil(t, b.config.NewTraceID)
		assert.Equal(t, DefaultMaxPayloadLogBytes, b.config.MaxPayloadLogBytes)
	})

	t.Run("custom transport", func(t *testing.T) {
		var used atomic.Bool
		c := NewBuilder(log).WithTransport(roundTripperFunc(func(req *nethttp.Request) (*nethttp.Response, error) {
			used.Store(true)
			return &nethttp.Response{
				StatusCode: nethttp.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
				Header:     nethttp.Header{},
				Request:    req,
			}, nil
		})).Build()

		res, err := c.Execute(context.Background(), postTo("http://chat.invalid/chat"), Policy{Timeout: time.Second, MaxAttempts: 1})
		require.NoError(t, err)
		assert.True(t, used.Load())
		assert.JSONEq(t, `{"ok":true}`, string(res.Payload))
	})

	t.Run("each build owns its http client", func(t *testing.T) {
		rt := roundTripperFunc(func(*nethttp.Request) (*nethttp.Response, error) {
			return nil, errors.New("unused")
		})
		b := NewBuilder(log)
		plain, ok := b.Build().(*client)
		require.True(t, ok)
		custom, ok := b.WithTransport(rt).Build().(*client)
		require.True(t, ok)

		assert.NotSame(t, plain.httpClient, custom.httpClient)
		assert.Nil(t, plain.httpClient.Transport)
		assert.NotNil(t, custom.httpClient.Transport)
		assert.Zero(t, custom.httpClient.Timeout)
		assert.Nil(t, nethttp.DefaultClient.Transport)
	})
}

func TestExecuteSucceedsOnFirstAttempt(t *testing.T) {
	server, calls := scriptedServer(t, []int{nethttp.StatusOK}, `{"response":"hola"}`)
	defer server.Close()

	c := NewClient(createTestLogger())
	res, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: 15 * time.Second, MaxAttempts: 2})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, nethttp.StatusOK, res.StatusCode)

	var reply struct {
		Response string `json:"response"`
	}
	require.NoError(t, res.Decode(&reply))
	assert.Equal(t, "hola", reply.Response)
}

func TestExecuteRetriesServerRejections(t *testing.T) {
	server, calls := scriptedServer(t,
		[]int{nethttp.StatusInternalServerError, nethttp.StatusInternalServerError, nethttp.StatusOK},
		`{"response":"ok"}`)
	defer server.Close()

	var observed []Attempt
	c := NewBuilder(createTestLogger()).
		WithAttemptObserver(func(_ context.Context, a Attempt) { observed = append(observed, a) }).
		Build()

	res, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, int32(3), calls.Load())

	require.Len(t, observed, 3)
	assert.True(t, IsErrorType(observed[0].Err, ServerRejectedError))
	assert.Equal(t, nethttp.StatusInternalServerError, observed[1].StatusCode)
	assert.NoError(t, observed[2].Err)
	assert.Equal(t, 3, observed[2].Number)
}

func TestExecuteStopsAfterSuccess(t *testing.T) {
	server, calls := scriptedServer(t, []int{nethttp.StatusServiceUnavailable, nethttp.StatusOK}, `{}`)
	defer server.Close()

	c := NewClient(createTestLogger())
	res, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecuteExhausted(t *testing.T) {
	t.Run("server rejections keep the last status", func(t *testing.T) {
		server, calls := scriptedServer(t, []int{nethttp.StatusBadGateway, nethttp.StatusServiceUnavailable}, `oops`)
		defer server.Close()

		c := NewClient(createTestLogger())
		res, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 2})
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Equal(t, int32(2), calls.Load())

		var exhausted *ExhaustedError
		require.True(t, errors.As(err, &exhausted))
		assert.Equal(t, 2, exhausted.Attempts)
		assert.True(t, IsErrorType(err, ServerRejectedError))
		assert.True(t, IsStatusError(err, nethttp.StatusServiceUnavailable))
		assert.Equal(t, nethttp.StatusServiceUnavailable, StatusCodeOf(err))
	})

	t.Run("single attempt budget", func(t *testing.T) {
		server, calls := scriptedServer(t, []int{nethttp.StatusInternalServerError}, `{}`)
		defer server.Close()

		c := NewClient(createTestLogger())
		_, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 1})
		require.Error(t, err)
		assert.True(t, IsExhausted(err))
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestExecuteTimeout(t *testing.T) {
	server, calls := slowServer(t, 5*time.Second)
	defer server.Close()

	c := NewClient(createTestLogger())
	start := time.Now()
	_, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: 100 * time.Millisecond, MaxAttempts: 2})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsExhausted(err))
	assert.True(t, IsErrorType(err, TimeoutError))
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, int32(2), calls.Load())

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 2, exhausted.Attempts)
}

func TestExecuteDiscardsLateResponses(t *testing.T) {
	var calls atomic.Int32
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if calls.Add(1) == 1 {
			// Answer after the first attempt has already timed out.
			select {
			case <-time.After(300 * time.Millisecond):
			case <-r.Context().Done():
				return
			}
			_, _ = io.WriteString(w, `{"response":"late"}`)
			return
		}
		_, _ = io.WriteString(w, `{"response":"fresh"}`)
	}))
	defer server.Close()

	c := NewClient(createTestLogger())
	res, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: 100 * time.Millisecond, MaxAttempts: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.JSONEq(t, `{"response":"fresh"}`, string(res.Payload))
}

func TestExecuteParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "html body", body: "<html>maintenance</html>"},
		{name: "empty body", body: ""},
		{name: "truncated json", body: `{"response":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := scriptedServer(t, []int{nethttp.StatusOK}, tt.body)
			defer server.Close()

			c := NewClient(createTestLogger())
			_, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 2})
			require.Error(t, err)
			assert.True(t, IsErrorType(err, ParseError))
			assert.Equal(t, int32(2), calls.Load())
		})
	}
}

func TestExecuteTransportError(t *testing.T) {
	server := newIPv4TestServer(t, nethttp.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClient(createTestLogger())
	_, err := c.Execute(context.Background(), postTo(url), Policy{Timeout: time.Second, MaxAttempts: 2})
	require.Error(t, err)
	assert.True(t, IsExhausted(err))
	assert.True(t, IsErrorType(err, TransportError))
}

func TestExecuteParentCancellation(t *testing.T) {
	server, calls := scriptedServer(t, []int{nethttp.StatusOK}, `{}`)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(createTestLogger())
	_, err := c.Execute(ctx, postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 3})
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, exhausted.Attempts)
	assert.Equal(t, int32(0), calls.Load())
}

func TestExecuteCallerDeadline(t *testing.T) {
	server, calls := slowServer(t, 5*time.Second)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	c := NewClient(createTestLogger())
	_, err := c.Execute(ctx, postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 3})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, TimeoutError))
	assert.Contains(t, err.Error(), "caller deadline exceeded")
	assert.NotContains(t, err.Error(), "timeout: 1s")

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, exhausted.Attempts)
	assert.Equal(t, int32(1), calls.Load())

	var timeout *timeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Greater(t, timeout.Timeout(), time.Duration(0))
	assert.LessOrEqual(t, timeout.Timeout(), 150*time.Millisecond)
}

func TestExecuteValidation(t *testing.T) {
	c := NewClient(createTestLogger())
	ok := Policy{Timeout: time.Second, MaxAttempts: 1}

	tests := []struct {
		name   string
		req    *Request
		policy Policy
		field  string
	}{
		{name: "nil request", req: nil, policy: ok},
		{name: "missing url", req: &Request{Method: nethttp.MethodPost}, policy: ok},
		{name: "relative url", req: &Request{Method: nethttp.MethodPost, URL: "/chat"}, policy: ok},
		{name: "unknown method", req: &Request{Method: "TRACE", URL: "http://example.com"}, policy: ok},
		{name: "zero timeout", req: postTo("http://example.com"), policy: Policy{MaxAttempts: 1}},
		{name: "zero attempts", req: postTo("http://example.com"), policy: Policy{Timeout: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Execute(context.Background(), tt.req, tt.policy)
			require.Error(t, err)
			assert.True(t, IsErrorType(err, ValidationError))
			assert.False(t, IsExhausted(err))
		})
	}
}

func TestClientHTTPMethods(t *testing.T) {
	var gotMethod atomic.Value
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotMethod.Store(r.Method)
		w.WriteHeader(nethttp.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(createTestLogger())
	req := &Request{URL: server.URL}
	ctx := context.Background()

	calls := map[string]func(context.Context, *Request) (*Response, error){
		nethttp.MethodGet:    c.Get,
		nethttp.MethodPost:   c.Post,
		nethttp.MethodPut:    c.Put,
		nethttp.MethodPatch:  c.Patch,
		nethttp.MethodDelete: c.Delete,
	}
	for method, call := range calls {
		t.Run(method, func(t *testing.T) {
			resp, err := call(ctx, req)
			require.NoError(t, err)
			assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)
			assert.Equal(t, method, gotMethod.Load())
			assert.Equal(t, 1, resp.Stats.Attempts)
		})
	}
	assert.Empty(t, req.Method, "caller request must not be mutated")
}

func TestDoReturnsLastResponseOnFailure(t *testing.T) {
	server, _ := scriptedServer(t, []int{nethttp.StatusNotFound}, `missing`)
	defer server.Close()

	c := NewBuilder(createTestLogger()).WithMaxAttempts(1).Build()
	resp, err := c.Get(context.Background(), &Request{URL: server.URL})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "missing", string(resp.Body))
}

func TestClientHeaders(t *testing.T) {
	var mu sync.Mutex
	var got nethttp.Header
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mu.Lock()
		got = r.Header.Clone()
		mu.Unlock()
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	c := NewBuilder(createTestLogger()).
		WithDefaultHeader("X-App", "chatwire").
		WithDefaultHeader("X-Override", "default").
		Build()

	req := postTo(server.URL)
	req.Headers = map[string]string{"X-Override": "request"}
	_, err := c.Execute(context.Background(), req, Policy{Timeout: time.Second, MaxAttempts: 1})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "chatwire", got.Get("X-App"))
	assert.Equal(t, "request", got.Get("X-Override"))
	assert.Equal(t, testJSONType, got.Get(testContentType))
	assert.NotEmpty(t, got.Get(HeaderXRequestID))
}

func TestClientInterceptors(t *testing.T) {
	t.Run("request and response interceptors run per attempt", func(t *testing.T) {
		server, _ := scriptedServer(t, []int{nethttp.StatusInternalServerError, nethttp.StatusOK}, `{}`)
		defer server.Close()

		var reqCalls, respCalls atomic.Int32
		c := NewBuilder(createTestLogger()).
			WithRequestInterceptor(func(_ context.Context, req *nethttp.Request) error {
				reqCalls.Add(1)
				req.Header.Set("X-Intercepted", "true")
				return nil
			}).
			WithResponseInterceptor(func(_ context.Context, _ *nethttp.Request, _ *nethttp.Response) error {
				respCalls.Add(1)
				return nil
			}).
			Build()

		_, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 2})
		require.NoError(t, err)
		assert.Equal(t, int32(2), reqCalls.Load())
		assert.Equal(t, int32(2), respCalls.Load())
	})

	t.Run("request interceptor failure is not retried", func(t *testing.T) {
		server, calls := scriptedServer(t, []int{nethttp.StatusOK}, `{}`)
		defer server.Close()

		c := NewBuilder(createTestLogger()).
			WithRequestInterceptor(func(context.Context, *nethttp.Request) error {
				return fmt.Errorf("signing failed")
			}).
			Build()

		_, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 3})
		require.Error(t, err)
		assert.True(t, IsErrorType(err, InterceptorError))
		assert.False(t, IsExhausted(err))
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("response interceptor failure is not retried", func(t *testing.T) {
		server, calls := scriptedServer(t, []int{nethttp.StatusOK}, `{}`)
		defer server.Close()

		c := NewBuilder(createTestLogger()).
			WithResponseInterceptor(func(context.Context, *nethttp.Request, *nethttp.Response) error {
				return fmt.Errorf("unexpected signature")
			}).
			Build()

		_, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 3})
		require.Error(t, err)
		assert.True(t, IsErrorType(err, InterceptorError))
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestTraceIDPropagation(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	var parents []string
	server := newIPv4TestServer(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get(HeaderXRequestID))
		parents = append(parents, r.Header.Get(HeaderTraceParent))
		n := len(seen)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(nethttp.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	reset := func() {
		mu.Lock()
		seen, parents = nil, nil
		mu.Unlock()
	}

	t.Run("same id on every attempt", func(t *testing.T) {
		reset()
		c := NewBuilder(createTestLogger()).WithTraceIDGenerator(func() string { return "generated-id" }).Build()
		_, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 2})
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"generated-id", "generated-id"}, seen)
		assert.Equal(t, []string{"", ""}, parents)
	})

	t.Run("context id wins over generator", func(t *testing.T) {
		reset()
		c := NewBuilder(createTestLogger()).WithTraceIDGenerator(func() string { return "generated-id" }).Build()
		ctx := WithTraceID(context.Background(), testCustomTrace)
		_, err := c.Execute(ctx, postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 2})
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{testCustomTrace, testCustomTrace}, seen)
	})

	t.Run("request header wins over context", func(t *testing.T) {
		reset()
		c := NewClient(createTestLogger())
		req := postTo(server.URL)
		req.Headers = map[string]string{"x-request-id": "explicit"}
		ctx := WithTraceID(context.Background(), testCustomTrace)
		_, err := c.Execute(ctx, req, Policy{Timeout: time.Second, MaxAttempts: 2})
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"explicit", "explicit"}, seen)
	})

	t.Run("w3c traceparent", func(t *testing.T) {
		reset()
		c := NewBuilder(createTestLogger()).WithW3CTrace(true).Build()
		_, err := c.Execute(context.Background(), postTo(server.URL), Policy{Timeout: time.Second, MaxAttempts: 2})
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, parents, 2)
		for _, tp := range parents {
			assert.Regexp(t, `^00-[0-9a-f]{32}-[0-9a-f]{16}-01$`, tp)
		}
	})
}

func TestTraceIDUtilities(t *testing.T) {
	_, ok := TraceIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithTraceID(context.Background(), testCustomTrace)
	id, ok := TraceIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, testCustomTrace, id)
}

func TestNewTraceIDInterceptorFor(t *testing.T) {
	t.Run("sets missing header from context", func(t *testing.T) {
		req := httptest.NewRequest(nethttp.MethodGet, "http://example.com", nethttp.NoBody)
		ctx := WithTraceID(context.Background(), testCustomTrace)

		require.NoError(t, NewTraceIDInterceptorFor("X-Trace-ID")(ctx, req))
		assert.Equal(t, testCustomTrace, req.Header.Get("X-Trace-ID"))
	})

	t.Run("keeps existing header", func(t *testing.T) {
		req := httptest.NewRequest(nethttp.MethodGet, "http://example.com", nethttp.NoBody)
		req.Header.Set(HeaderXRequestID, "already-set")

		require.NoError(t, NewTraceIDInterceptorFor("")(context.Background(), req))
		assert.Equal(t, "already-set", req.Header.Get(HeaderXRequestID))
	})

	t.Run("generates when context is empty", func(t *testing.T) {
		req := httptest.NewRequest(nethttp.MethodGet, "http://example.com", nethttp.NoBody)

		require.NoError(t, NewTraceIDInterceptorFor("")(context.Background(), req))
		assert.NotEmpty(t, req.Header.Get(HeaderXRequestID))
	})
}

func TestResultDecode(t *testing.T) {
	res := &Result{Payload: []byte(`{"response":1}`)}
	var out struct {
		Response string `json:"response"`
	}
	err := res.Decode(&out)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ParseError))
}
