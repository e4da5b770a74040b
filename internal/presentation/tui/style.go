package tui

import (
	"fmt"

	"github.com/aretw0/spellout/pkg/domain"
	"github.com/muesli/termenv"
)

// Styler colors log messages for the terminal.
type Styler struct {
	profile termenv.Profile
}

// NewStyler detects the color profile of stdout.
func NewStyler() *Styler {
	return &Styler{profile: termenv.ColorProfile()}
}

// NewStylerWithProfile pins the profile; termenv.Ascii disables colors.
func NewStylerWithProfile(p termenv.Profile) *Styler {
	return &Styler{profile: p}
}

// Message renders one log line with a severity marker.
func (s *Styler) Message(m domain.Message) string {
	var marker, color string
	switch m.Severity {
	case domain.SeverityWarning:
		marker, color = "!", "#f59e0b"
	case domain.SeverityError:
		marker, color = "✗", "#ef4444"
	default:
		marker, color = "·", "#9ca3af"
	}
	head := s.profile.String(marker).Foreground(s.profile.Color(color))
	text := s.profile.String(m.Text)
	if m.Severity == domain.SeverityError {
		text = text.Bold().Foreground(s.profile.Color(color))
	}
	return fmt.Sprintf("%s %s", head, text)
}

// Prompt renders a dimmed interactive hint.
func (s *Styler) Prompt(text string) string {
	return s.profile.String(text).Faint().String()
}
