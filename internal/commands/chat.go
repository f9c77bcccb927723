package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/chatwire/chat"
	"github.com/gaborage/chatwire/render"
)

const (
	promptText   = "> "
	cmdQuit      = "/quit"
	cmdExit      = "/exit"
	rejoinNotice = "Retomando la conversación %s\n"
)

// ChatOptions holds options for the chat command
type ChatOptions struct {
	ChatID string
	Who    string
	Name   string
	Phone  string
	Option string
}

// NewChatCommand creates the interactive chat command
func NewChatCommand(global *GlobalOptions) *cobra.Command {
	opts := &ChatOptions{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Reads messages from standard input and prints replies with a typing effect.

Enter the number of a suggested reply to send it as a quick reply.
Type /quit to leave. When --name, --phone and --option are given the contact
form is submitted to /welcome_user before the conversation starts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			return withMetrics(cfg, cmd.ErrOrStderr(), func(mp metric.MeterProvider) error {
				sender := newSender(cfg, newLogger(cfg, cmd.ErrOrStderr()), mp)
				r := global.newRenderer(cmd.OutOrStdout(), cfg.Render.Delay)
				return runChat(cmd.Context(), sender, r, opts, cmd.InOrStdin())
			})
		},
	}

	cmd.Flags().StringVar(&opts.ChatID, "chat-id", "", "Numeric id of a conversation to continue")
	cmd.Flags().StringVar(&opts.Who, "who", "", "Name reported as who_is_conected")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Contact name for the welcome form")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "Contact phone for the welcome form")
	cmd.Flags().StringVar(&opts.Option, "option", "", "Topic selected in the welcome form")

	return cmd
}

func (o *ChatOptions) contact() (chat.Contact, bool) {
	if o.Name == "" && o.Phone == "" && o.Option == "" {
		return chat.Contact{}, false
	}
	return chat.Contact{Name: o.Name, Phone: o.Phone, Option: o.Option}, true
}

func runChat(ctx context.Context, sender *chat.Sender, r *render.Renderer, opts *ChatOptions, in io.Reader) error {
	if contact, ok := opts.contact(); ok {
		if err := sender.Welcome(ctx, contact); err != nil {
			return withUserText(err)
		}
	}

	who := opts.Who
	if who == "" {
		who = opts.Name
	}
	session := chat.NewSession(opts.ChatID, who)
	if session.CanRejoin() {
		if _, err := fmt.Fprintf(r.Out, rejoinNotice, session.ChatID); err != nil {
			return err
		}
	}
	// Replaying history is instant, so it uses an unpaced copy of r.
	replay := &render.Renderer{Out: r.Out, Style: r.Style}

	var suggestions []string
	scanner := bufio.NewScanner(in)
	for {
		if _, err := io.WriteString(r.Out, promptText); err != nil {
			return err
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case cmdQuit, cmdExit:
			return nil
		}

		var (
			reply *chat.Reply
			err   error
		)
		if pick, ok := pickSuggestion(line, suggestions); ok {
			if err := replay.Message(ctx, render.UserSender, pick); err != nil {
				return err
			}
			reply, err = sender.SendQuickReply(ctx, session, pick)
		} else {
			reply, err = sender.Send(ctx, session, line)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, chat.ErrEmptyMessage) {
				continue
			}
			if err := r.Message(ctx, render.BotSender, chat.UserMessage(err)); err != nil {
				return err
			}
			continue
		}

		if len(reply.History) > 0 {
			if err := replay.Render(ctx, historyOps(reply.History)); err != nil {
				return err
			}
		}
		if err := printReply(ctx, r, reply); err != nil {
			return err
		}
		suggestions = reply.SuggestedResponses
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// pickSuggestion resolves a 1-based suggestion number.
func pickSuggestion(line string, suggestions []string) (string, bool) {
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(suggestions) {
		return "", false
	}
	return suggestions[n-1], true
}
