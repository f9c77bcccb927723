package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/chatwire/chat"
)

// chatIDLayout formats generated chat ids as web_<yyyymmdd_hhmmss>.
const chatIDLayout = "20060102_150405"

// ChatResponse is the /chat success body.
type ChatResponse struct {
	Response           string   `json:"response"`
	Status             string   `json:"status"`
	ChatID             string   `json:"chat_id"`
	SuggestedResponses []string `json:"suggested_responses"`
}

// ChatFailure is the /chat body when the responder fails. Response holds
// text that can be shown as is.
type ChatFailure struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// GenerateChatID returns the id assigned to conversations started without one.
func GenerateChatID(now time.Time) string {
	return "web_" + now.Format(chatIDLayout)
}

func (s *Server) chat(c echo.Context) error {
	var req chat.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("Invalid request body").WithDetails("error", err.Error())
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return NewBadRequestError("Empty message")
	}

	chatID := req.ChatID
	if chatID == "" {
		chatID = GenerateChatID(time.Now())
	}

	ctx := c.Request().Context()
	answer, err := s.responder.Respond(ctx, Prompt{
		Message:        message,
		ChatID:         chatID,
		WhoIsConnected: req.WhoIsConnected,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		s.logger.Error().
			Err(err).
			Str("chat_id", chatID).
			Str("request_id", safeGetRequestID(c)).
			Msg("Chat processing failed")
		return c.JSON(http.StatusInternalServerError, ChatFailure{
			Response: chat.MsgGeneric,
			Error:    "Processing failed",
		})
	}

	suggestions := answer.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return c.JSON(http.StatusOK, ChatResponse{
		Response:           answer.Text,
		Status:             "success",
		ChatID:             chatID,
		SuggestedResponses: suggestions,
	})
}

func (s *Server) welcomeUser(c echo.Context) error {
	var contact chat.Contact
	if err := c.Bind(&contact); err != nil {
		return NewBadRequestError("Invalid request body").WithDetails("error", err.Error())
	}
	contact = contact.Normalize()

	if err := c.Validate(&contact); err != nil {
		apiErr := NewBadRequestError("Request validation failed")
		var ve *ValidationError
		if errors.As(err, &ve) {
			_ = apiErr.WithDetails("validationErrors", ve.Errors)
		}
		return apiErr
	}

	s.logger.Info().
		Str("name", contact.Name).
		Str("phone", contact.Phone).
		Str("option", contact.Option).
		Msg("Contact registered")

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Contacto registrado",
	})
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "running",
		"service":   s.cfg.App.Name,
		"version":   s.cfg.App.Version,
		"env":       s.cfg.App.Env,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"endpoints": map[string]string{
			"chat":    s.basePath + "/chat",
			"welcome": s.basePath + "/welcome_user",
			"status":  s.basePath + statusPath,
			"health":  s.basePath + healthPath,
		},
	})
}
