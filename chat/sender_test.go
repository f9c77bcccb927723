package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/chatwire/httpclient"
	"github.com/gaborage/chatwire/logger"
)

const testReply = `{"response":"¡Hola! ¿En qué te ayudo?","suggested_responses":["Precios","Soporte"],"history_process":[{"sender":"user","message":"hola"}],"chat_id":"42","status":"success"}`

type backend struct {
	mu       sync.Mutex
	requests []SubmitRequest
	paths    []string
	calls    atomic.Int32
}

func newBackend(t *testing.T, handler func(n int32, w nethttp.ResponseWriter, r *nethttp.Request)) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{}
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		n := b.calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		var req SubmitRequest
		_ = json.Unmarshal(raw, &req)
		b.mu.Lock()
		b.requests = append(b.requests, req)
		b.paths = append(b.paths, r.URL.Path)
		b.mu.Unlock()
		handler(n, w, r)
	}))
	t.Cleanup(server.Close)
	return b, server
}

func (b *backend) last() SubmitRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

func newTestSender(baseURL string) *Sender {
	return NewSender(httpclient.NewClient(logger.Nop()), baseURL, logger.Nop())
}

func TestSendDecodesReply(t *testing.T) {
	b, server := newBackend(t, func(_ int32, w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = io.WriteString(w, testReply)
	})

	session := &Session{ChatID: "42", WhoIsConnected: "ana"}
	reply, err := newTestSender(server.URL).Send(context.Background(), session, "  <b>hola</b>  ")
	require.NoError(t, err)

	text, ok := reply.Text()
	assert.True(t, ok)
	assert.Equal(t, "¡Hola! ¿En qué te ayudo?", text)
	assert.Equal(t, []string{"Precios", "Soporte"}, reply.SuggestedResponses)
	require.Len(t, reply.History, 1)
	assert.Equal(t, HistoryEntry{Sender: "user", Message: "hola"}, reply.History[0])

	got := b.last()
	assert.Equal(t, "&lt;b&gt;hola&lt;&#x2F;b&gt;", got.Message)
	assert.Equal(t, "ana", got.WhoIsConnected)
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, []string{"/chat"}, b.paths)
}

func TestSendQuickReplyIsNotSanitized(t *testing.T) {
	b, server := newBackend(t, func(_ int32, w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = io.WriteString(w, `{"response":"ok"}`)
	})

	_, err := newTestSender(server.URL).SendQuickReply(context.Background(), NewSession("", "ana"), "Precios (2025)")
	require.NoError(t, err)
	assert.Equal(t, "Precios (2025)", b.last().Message)
}

func TestSendAdoptsAssignedChatID(t *testing.T) {
	_, server := newBackend(t, func(_ int32, w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = io.WriteString(w, `{"response":"ok","chat_id":"web_20250101_120000"}`)
	})

	session := NewSession("", "")
	_, err := newTestSender(server.URL).Send(context.Background(), session, "hola")
	require.NoError(t, err)
	assert.Equal(t, "web_20250101_120000", session.ChatID)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	b, server := newBackend(t, func(_ int32, w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	sender := newTestSender(server.URL)

	_, err := sender.Send(context.Background(), NewSession("", ""), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = sender.SendQuickReply(context.Background(), NewSession("", ""), "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestSendRetriesOnce(t *testing.T) {
	b, server := newBackend(t, func(n int32, w nethttp.ResponseWriter, _ *nethttp.Request) {
		if n == 1 {
			w.WriteHeader(nethttp.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"response":"segundo intento"}`)
	})

	reply, err := newTestSender(server.URL).Send(context.Background(), NewSession("", ""), "hola")
	require.NoError(t, err)
	text, _ := reply.Text()
	assert.Equal(t, "segundo intento", text)
	assert.Equal(t, int32(2), b.calls.Load())
}

func TestSendFailures(t *testing.T) {
	t.Run("timeout reads as slow connection", func(t *testing.T) {
		b, server := newBackend(t, func(_ int32, _ nethttp.ResponseWriter, r *nethttp.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		})
		sender := newTestSender(server.URL).WithTypedPolicy(httpclient.Policy{Timeout: 50 * time.Millisecond, MaxAttempts: 2})

		_, err := sender.Send(context.Background(), NewSession("", ""), "hola")
		require.Error(t, err)

		var sendErr *SendError
		require.True(t, errors.As(err, &sendErr))
		assert.Equal(t, MsgSlowConnection, sendErr.UserText)
		assert.Equal(t, "/chat", sendErr.Endpoint)
		assert.True(t, httpclient.IsExhausted(err))
		assert.Equal(t, int32(2), b.calls.Load())
	})

	t.Run("unreachable backend", func(t *testing.T) {
		server := httptest.NewServer(nethttp.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := newTestSender(url).SendQuickReply(context.Background(), NewSession("", ""), "Precios")
		require.Error(t, err)
		assert.Equal(t, MsgUnreachable, UserMessage(err))
	})

	t.Run("server rejection gets generic text", func(t *testing.T) {
		_, server := newBackend(t, func(_ int32, w nethttp.ResponseWriter, _ *nethttp.Request) {
			w.WriteHeader(nethttp.StatusBadGateway)
		})

		_, err := newTestSender(server.URL).Send(context.Background(), NewSession("", ""), "hola")
		var sendErr *SendError
		require.True(t, errors.As(err, &sendErr))
		assert.Equal(t, MsgGeneric, sendErr.UserText)
	})

	t.Run("reply of the wrong shape", func(t *testing.T) {
		_, server := newBackend(t, func(_ int32, w nethttp.ResponseWriter, _ *nethttp.Request) {
			_, _ = io.WriteString(w, `{"response":["not","a","string"]}`)
		})

		_, err := newTestSender(server.URL).Send(context.Background(), NewSession("", ""), "hola")
		require.Error(t, err)
		assert.True(t, httpclient.IsErrorType(err, httpclient.ParseError))
		assert.Equal(t, MsgGeneric, UserMessage(err))
	})
}

func TestWelcome(t *testing.T) {
	t.Run("posts validated contact", func(t *testing.T) {
		var got Contact
		var mu sync.Mutex
		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			assert.Equal(t, "/welcome_user", r.URL.Path)
			mu.Lock()
			_ = json.NewDecoder(r.Body).Decode(&got)
			mu.Unlock()
			_, _ = io.WriteString(w, `{"status":"success"}`)
		}))
		defer server.Close()

		err := newTestSender(server.URL).Welcome(context.Background(), Contact{Name: " Ana ", Phone: "55 1234 5678", Option: "soporte"})
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, Contact{Name: "Ana", Phone: "55 1234 5678", Option: "soporte"}, got)
	})

	t.Run("invalid contact is not sent", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		err := newTestSender(server.URL).Welcome(context.Background(), Contact{Name: "Ana", Phone: "1212121212", Option: "soporte"})
		var contactErr *ContactError
		require.True(t, errors.As(err, &contactErr))
		assert.Equal(t, "phone", contactErr.Field)
		assert.Equal(t, int32(0), calls.Load())
	})
}

func TestSessionCanRejoin(t *testing.T) {
	assert.True(t, (&Session{ChatID: "1024"}).CanRejoin())
	assert.False(t, (&Session{ChatID: "web_20250101_120000"}).CanRejoin())
	assert.False(t, (&Session{}).CanRejoin())
	assert.False(t, (*Session)(nil).CanRejoin())
	assert.True(t, NewSession("7", "ana").CanRejoin())
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, MsgSlowConnection, UserMessage(&httpclient.ExhaustedError{Attempts: 2, Last: httpclient.NewTimeoutError("x", time.Second)}))
	assert.Equal(t, MsgUnreachable, UserMessage(httpclient.NewTransportError("refused", nil)))
	assert.Equal(t, MsgGeneric, UserMessage(httpclient.NewParseError("x", nil)))
	assert.Equal(t, MsgGeneric, UserMessage(errors.New("anything else")))
}
