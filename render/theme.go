package render

import "github.com/charmbracelet/lipgloss"

const (
	// UserSender is the sender name used for the person chatting.
	UserSender = "user"
	// BotSender is the name the assistant's replies are labeled with.
	BotSender = "Machín"
)

// Theme styles sender labels.
type Theme struct {
	User lipgloss.Style
	Bot  lipgloss.Style
}

// DefaultTheme colors the user label blue and every other sender mint.
func DefaultTheme() Theme {
	return Theme{
		User: lipgloss.NewStyle().Foreground(lipgloss.Color("#01cdfe")).Bold(true),
		Bot:  lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1")).Bold(true),
	}
}

// PlainTheme applies no styling.
func PlainTheme() Theme {
	return Theme{
		User: lipgloss.NewStyle(),
		Bot:  lipgloss.NewStyle(),
	}
}

// Label renders the sender label
func (t Theme) Label(sender string) string {
	if sender == UserSender {
		return t.User.Render("Tú:")
	}
	return t.Bot.Render(sender + ":")
}
