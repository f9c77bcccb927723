package chat

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gaborage/chatwire/httpclient"
	"github.com/gaborage/chatwire/logger"
)

const (
	chatPath    = "chat"
	welcomePath = "welcome_user"
)

var (
	// TypedPolicy applies to free text typed by the user.
	TypedPolicy = httpclient.Policy{Timeout: 15 * time.Second, MaxAttempts: 2}
	// QuickReplyPolicy applies to suggested replies and the welcome form.
	QuickReplyPolicy = httpclient.Policy{Timeout: 8 * time.Second, MaxAttempts: 2}
)

// Sender posts chat messages to the backend.
type Sender struct {
	client     httpclient.Client
	baseURL    string
	logger     logger.Logger
	typed      httpclient.Policy
	quickReply httpclient.Policy
}

// NewSender creates a Sender for the backend at baseURL using the default policies.
func NewSender(client httpclient.Client, baseURL string, log logger.Logger) *Sender {
	return &Sender{
		client:     client,
		baseURL:    baseURL,
		logger:     log,
		typed:      TypedPolicy,
		quickReply: QuickReplyPolicy,
	}
}

// WithTypedPolicy overrides the policy used by Send
func (s *Sender) WithTypedPolicy(p httpclient.Policy) *Sender {
	s.typed = p
	return s
}

// WithQuickReplyPolicy overrides the policy used by SendQuickReply and Welcome
func (s *Sender) WithQuickReplyPolicy(p httpclient.Policy) *Sender {
	s.quickReply = p
	return s
}

// Send delivers text typed by the user. The text is trimmed and sanitized.
func (s *Sender) Send(ctx context.Context, session *Session, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return s.send(ctx, session, Sanitize(text), s.typed)
}

// SendQuickReply delivers a suggested reply the user selected. The text is
// trimmed but otherwise sent as offered by the backend.
func (s *Sender) SendQuickReply(ctx context.Context, session *Session, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return s.send(ctx, session, text, s.quickReply)
}

// Welcome validates the contact form and posts it to the backend.
func (s *Sender) Welcome(ctx context.Context, contact Contact) error {
	if err := ValidateContact(contact); err != nil {
		return err
	}
	body, err := json.Marshal(contact.Normalize())
	if err != nil {
		return fmt.Errorf("chat: failed to encode contact: %w", err)
	}

	if _, err := s.post(ctx, welcomePath, body, s.quickReply); err != nil {
		return err
	}
	s.logger.Info().Str("option", contact.Option).Msg("Contact registered")
	return nil
}

func (s *Sender) send(ctx context.Context, session *Session, message string, policy httpclient.Policy) (*Reply, error) {
	if session == nil {
		session = &Session{}
	}
	body, err := json.Marshal(session.request(message))
	if err != nil {
		return nil, fmt.Errorf("chat: failed to encode message: %w", err)
	}

	res, err := s.post(ctx, chatPath, body, policy)
	if err != nil {
		return nil, err
	}

	var reply Reply
	if err := res.Decode(&reply); err != nil {
		return nil, newSendError("/"+chatPath, err)
	}
	if session.ChatID == "" && reply.ChatID != "" {
		session.ChatID = reply.ChatID
	}

	s.logger.Debug().
		Str("chat_id", session.ChatID).
		Int("attempts", res.Attempts).
		Int("suggestions", len(reply.SuggestedResponses)).
		Int("history", len(reply.History)).
		Msg("Chat reply received")
	return &reply, nil
}

func (s *Sender) post(ctx context.Context, path string, body []byte, policy httpclient.Policy) (*httpclient.Result, error) {
	endpoint, err := url.JoinPath(s.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("chat: invalid base url %q: %w", s.baseURL, err)
	}

	res, err := s.client.Execute(ctx, &httpclient.Request{
		Method: nethttp.MethodPost,
		URL:    endpoint,
		Body:   body,
	}, policy)
	if err != nil {
		sendErr := newSendError("/"+path, err)
		s.logger.Warn().
			Str("endpoint", sendErr.Endpoint).
			Err(err).
			Msg("Chat message not delivered")
		return nil, sendErr
	}
	return res, nil
}
