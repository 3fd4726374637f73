package tui

import (
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a message renderer: bot text is rendered as markdown with glamour,
// user-sender bubbles are right-aligned in an accent color.
func NewRenderer(width int) func(domain.Message) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	p := termenv.ColorProfile()

	return func(msg domain.Message) (string, error) {
		if msg.IsUser() {
			text := strings.TrimSpace(msg.Text)
			pad := width - len([]rune(text))
			if pad < 0 {
				pad = 0
			}
			return strings.Repeat(" ", pad) + termenv.String(text).Foreground(p.Color("#38bdf8")).String(), nil
		}
		if err != nil {
			return msg.Text, err
		}
		return r.Render(msg.Text)
	}
}
