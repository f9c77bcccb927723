package chat

import "strconv"

// SubmitRequest is the body posted to /chat. The who_is_conected spelling is
// what the backend reads.
type SubmitRequest struct {
	Message        string `json:"message"`
	WhoIsConnected string `json:"who_is_conected"`
	ChatID         string `json:"chat_id"`
}

// Reply is the success payload of /chat. Every field is optional.
type Reply struct {
	Response           *string        `json:"response,omitempty"`
	SuggestedResponses []string       `json:"suggested_responses,omitempty"`
	History            []HistoryEntry `json:"history_process,omitempty"`
	ChatID             string         `json:"chat_id,omitempty"`
	Status             string         `json:"status,omitempty"`
}

// Text returns the bot response and whether one was sent.
func (r *Reply) Text() (string, bool) {
	if r == nil || r.Response == nil {
		return "", false
	}
	return *r.Response, true
}

// HistoryEntry is one earlier message replayed by the backend.
type HistoryEntry struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// Session carries the per-conversation identifiers sent with every message.
// A Session is not safe for concurrent use.
type Session struct {
	ChatID         string
	WhoIsConnected string
}

// NewSession creates a session for chatID, which may be empty to let the
// backend assign one.
func NewSession(chatID, whoIsConnected string) *Session {
	return &Session{ChatID: chatID, WhoIsConnected: whoIsConnected}
}

// CanRejoin reports whether the chat id names an existing numeric conversation.
func (s *Session) CanRejoin() bool {
	if s == nil || s.ChatID == "" {
		return false
	}
	_, err := strconv.Atoi(s.ChatID)
	return err == nil
}

func (s *Session) request(message string) SubmitRequest {
	return SubmitRequest{
		Message:        message,
		WhoIsConnected: s.WhoIsConnected,
		ChatID:         s.ChatID,
	}
}
