package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/chatwire/chat"
	"github.com/gaborage/chatwire/render"
)

// SendOptions holds options for the send command
type SendOptions struct {
	ChatID string
	Who    string
	Quick  bool
	Get    string
}

// NewSendCommand creates the send command
func NewSendCommand(global *GlobalOptions) *cobra.Command {
	opts := &SendOptions{}

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send one message and print the reply",
		Long: `Posts a single message to the backend's /chat endpoint and prints the reply.

Typed messages are sanitized before sending. Use --quick to send a suggested
reply as offered by the backend.`,
		Example: `  # Ask a question
  chatwire send "¿Cuánto cuesta el servicio?"

  # Continue an existing conversation
  chatwire send --chat-id 1234 "Gracias"

  # Print only the first suggested reply
  chatwire send --get suggested_responses.0 "Hola"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			return withMetrics(cfg, cmd.ErrOrStderr(), func(mp metric.MeterProvider) error {
				sender := newSender(cfg, newLogger(cfg, cmd.ErrOrStderr()), mp)
				r := global.newRenderer(cmd.OutOrStdout(), cfg.Render.Delay)
				return runSend(cmd.Context(), sender, r, opts, strings.Join(args, " "))
			})
		},
	}

	cmd.Flags().StringVar(&opts.ChatID, "chat-id", "", "Conversation to continue")
	cmd.Flags().StringVar(&opts.Who, "who", "", "Name reported as who_is_conected")
	cmd.Flags().BoolVarP(&opts.Quick, "quick", "q", false, "Send as a quick reply (not sanitized, shorter timeout)")
	cmd.Flags().StringVarP(&opts.Get, "get", "g", "", "Print only the reply value at this gjson path")

	return cmd
}

func runSend(ctx context.Context, sender *chat.Sender, r *render.Renderer, opts *SendOptions, message string) error {
	session := chat.NewSession(opts.ChatID, opts.Who)

	var (
		reply *chat.Reply
		err   error
	)
	if opts.Quick {
		reply, err = sender.SendQuickReply(ctx, session, message)
	} else {
		reply, err = sender.Send(ctx, session, message)
	}
	if err != nil {
		return withUserText(err)
	}

	if opts.Get != "" {
		return printPath(r.Out, reply, opts.Get)
	}
	return printReply(ctx, r, reply)
}

// printPath prints the reply value at a gjson path, failing when absent.
func printPath(w io.Writer, reply *chat.Reply, path string) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}
	value := gjson.GetBytes(data, path)
	if !value.Exists() {
		return fmt.Errorf("reply has no value at %q", path)
	}
	_, err = fmt.Fprintln(w, value.String())
	return err
}

// withUserText prefixes delivery failures with the text a user would see.
func withUserText(err error) error {
	var sendErr *chat.SendError
	if errors.As(err, &sendErr) {
		return fmt.Errorf("%s: %w", sendErr.UserText, err)
	}
	return err
}
