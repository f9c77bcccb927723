package server

import (
	"context"
	"html"
	"strings"
)

// Prompt is one user message handed to a Responder.
type Prompt struct {
	Message        string
	ChatID         string
	WhoIsConnected string
}

// Answer is what the backend says back.
type Answer struct {
	Text        string
	Suggestions []string
}

// Responder produces the bot's answer to a prompt.
type Responder interface {
	Respond(ctx context.Context, p Prompt) (Answer, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, p Prompt) (Answer, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, p Prompt) (Answer, error) {
	return f(ctx, p)
}

// DefaultSuggestions are offered by EchoResponder after every answer.
var DefaultSuggestions = []string{"Precios", "Soporte técnico", "Hablar con un asesor"}

// EchoResponder repeats the message back. Clients escape markup before
// sending, so the entities are decoded first.
type EchoResponder struct{}

// Respond implements Responder.
func (EchoResponder) Respond(ctx context.Context, p Prompt) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	text := strings.TrimSpace(html.UnescapeString(p.Message))
	return Answer{
		Text:        "Recibí tu mensaje: " + text,
		Suggestions: append([]string(nil), DefaultSuggestions...),
	}, nil
}
