package commands

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/gaborage/chatwire/chat"
	"github.com/gaborage/chatwire/render"
)

// historyOps replays past messages as plain text; entries from the user get
// the user label.
func historyOps(entries []chat.HistoryEntry) iter.Seq[render.Op] {
	seqs := make([]iter.Seq[render.Op], 0, len(entries))
	for _, e := range entries {
		sender := e.Sender
		if strings.EqualFold(sender, render.UserSender) {
			sender = render.UserSender
		}
		seqs = append(seqs, render.Ops(sender, chat.PlainText(e.Message)))
	}
	return render.Concat(seqs...)
}

// printReply renders the reply as plain text with the typing effect followed
// by the numbered suggestions. Replies without text print only the suggestions.
func printReply(ctx context.Context, r *render.Renderer, reply *chat.Reply) error {
	if text, ok := reply.PlainText(); ok {
		if err := r.Message(ctx, render.BotSender, text); err != nil {
			return err
		}
	}
	return printSuggestions(r.Out, reply.SuggestedResponses)
}

func printSuggestions(w io.Writer, suggestions []string) error {
	for i, s := range suggestions {
		if _, err := fmt.Fprintf(w, "  [%d] %s\n", i+1, chat.PlainText(s)); err != nil {
			return err
		}
	}
	return nil
}
