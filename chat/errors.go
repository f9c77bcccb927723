package chat

import (
	"errors"
	"fmt"

	"github.com/gaborage/chatwire/httpclient"
)

// ErrEmptyMessage is returned when the text to send is blank after trimming.
var ErrEmptyMessage = errors.New("chat: empty message")

// Texts shown to the user when a message could not be delivered.
const (
	MsgSlowConnection = "Parece que la conexión está lenta. Espera unos segundos y vuelve a intentarlo."
	MsgUnreachable    = "No pudimos conectarnos con el servidor. Verifica tu conexión a internet e intenta de nuevo."
	MsgGeneric        = "¡Ups! Lo siento, algo salió mal. Por favor, intenta nuevamente más tarde o contacta a uno de nuestros asesores para obtener ayuda. ¡Gracias por tu paciencia!"
)

// SendError is returned by Sender when a message could not be delivered.
// UserText is safe to display.
type SendError struct {
	Endpoint string
	UserText string
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("chat: send to %s failed: %v", e.Endpoint, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// UserMessage maps a delivery failure to the text shown in the conversation.
// A timeout on the last attempt reads as a slow connection and a transport
// failure as an unreachable server. Everything else gets the generic apology.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case httpclient.IsErrorType(err, httpclient.TimeoutError):
		return MsgSlowConnection
	case httpclient.IsErrorType(err, httpclient.TransportError):
		return MsgUnreachable
	default:
		return MsgGeneric
	}
}

func newSendError(endpoint string, err error) *SendError {
	return &SendError{Endpoint: endpoint, UserText: UserMessage(err), Err: err}
}
