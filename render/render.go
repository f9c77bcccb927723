// Package render prints chat messages with a typing effect.
//
// A message is first turned into a lazy sequence of Ops by Ops, then a
// Renderer consumes that sequence on a single goroutine and decides the
// pacing. Producing ops never sleeps; Renderer.Delay alone controls timing,
// and a zero Delay prints everything at once.
package render

import (
	"context"
	"io"
	"iter"
	"time"
)

// DefaultDelay is the pause after each typed character.
const DefaultDelay = 25 * time.Millisecond

// OpKind identifies a render step
type OpKind int

const (
	// OpStart opens a message; Text is the sender.
	OpStart OpKind = iota
	// OpChar prints one rune of the message.
	OpChar
	// OpEnd closes a message.
	OpEnd
)

func (k OpKind) String() string {
	switch k {
	case OpStart:
		return "start"
	case OpChar:
		return "char"
	case OpEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Op is a single render step.
type Op struct {
	Kind OpKind
	Text string
}

// Ops yields the steps that print text on behalf of sender.
func Ops(sender, text string) iter.Seq[Op] {
	return func(yield func(Op) bool) {
		if !yield(Op{Kind: OpStart, Text: sender}) {
			return
		}
		for _, r := range text {
			if !yield(Op{Kind: OpChar, Text: string(r)}) {
				return
			}
		}
		yield(Op{Kind: OpEnd})
	}
}

// Concat yields every op of each sequence in turn.
func Concat(seqs ...iter.Seq[Op]) iter.Seq[Op] {
	return func(yield func(Op) bool) {
		for _, seq := range seqs {
			for op := range seq {
				if !yield(op) {
					return
				}
			}
		}
	}
}

// Renderer writes op sequences to Out.
type Renderer struct {
	Out   io.Writer
	Delay time.Duration
	Style Theme
}

// New returns a Renderer with the default theme.
func New(out io.Writer, delay time.Duration) *Renderer {
	return &Renderer{Out: out, Delay: delay, Style: DefaultTheme()}
}

// Render consumes seq until it is exhausted or ctx is done, in which case the
// context error is returned and the rest of the sequence is not produced.
func (r *Renderer) Render(ctx context.Context, seq iter.Seq[Op]) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for op := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}

		var out string
		switch op.Kind {
		case OpStart:
			out = r.Style.Label(op.Text) + " "
		case OpChar:
			out = op.Text
		case OpEnd:
			out = "\n"
		}
		if _, err := io.WriteString(r.Out, out); err != nil {
			return err
		}

		if op.Kind != OpChar || r.Delay <= 0 {
			continue
		}
		if timer == nil {
			timer = time.NewTimer(r.Delay)
		} else {
			timer.Reset(r.Delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Message renders a single message.
func (r *Renderer) Message(ctx context.Context, sender, text string) error {
	return r.Render(ctx, Ops(sender, text))
}
