package chat

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	"*", "&#x2A;",
	"(", "&#x28;",
	")", "&#x29;",
	"[", "&#x5B;",
	"]", "&#x5D;",
	"{", "&#x7B;",
	"}", "&#x7D;",
)

var (
	// Bot replies are HTML fragments; only their text reaches a terminal.
	replyPolicy = bluemonday.StrictPolicy()

	lineBreaks = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "<BR>", "\n")
)

// Sanitize replaces markup and bracket characters with HTML entities.
// Each character is replaced once; entities produced are not re-escaped.
func Sanitize(s string) string {
	return sanitizer.Replace(s)
}

// PlainText converts an HTML reply fragment to the text a browser would show:
// line breaks become newlines, tags are dropped and entities are decoded.
// Escaped markup such as &lt;b&gt; is kept as literal text.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	stripped := replyPolicy.Sanitize(lineBreaks.Replace(s))
	return html.UnescapeString(stripped)
}

// PlainText returns the bot response as plain text and whether one was sent.
func (r *Reply) PlainText() (string, bool) {
	text, ok := r.Text()
	if !ok {
		return "", false
	}
	return PlainText(text), true
}
