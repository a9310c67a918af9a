// Package resources shows the alternate videos and activities for the
// current topic.
package resources

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/gilbot/internal/router"
	"github.com/abhisek/gilbot/internal/screen"
	"github.com/abhisek/gilbot/internal/tutor"
	"github.com/abhisek/gilbot/internal/ui/layout"
	"github.com/abhisek/gilbot/internal/ui/theme"
)

// Screen lists alternates. Esc or q closes it.
type Screen struct {
	topic string
	alts  tutor.Alternates
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a resources screen for topic.
func New(topic string, alts tutor.Alternates) *Screen {
	return &Screen{topic: topic, alts: alts}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "More resources" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back to chat"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "q" {
		return s, router.Pop()
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder

	topic := s.topic
	if topic == "" {
		topic = "no topic yet"
	}
	b.WriteString(theme.Title.Render("Topic: "+topic) + "\n\n")

	if len(s.alts.Videos) == 0 && len(s.alts.Diagrams) == 0 {
		b.WriteString(theme.Hint.Render("Nothing else to show. Ask a question first."))
	}
	if len(s.alts.Videos) > 0 {
		b.WriteString(theme.StudentLabel.Render("Videos") + "\n")
		for i, v := range s.alts.Videos {
			fmt.Fprintf(&b, "  %d. %s\n     %s\n", i+1, v.Title, theme.ResourceLine.Render(v.URL))
		}
		b.WriteString("\n")
	}
	if len(s.alts.Diagrams) > 0 {
		b.WriteString(theme.StudentLabel.Render("Interactive activities") + "\n")
		for i, d := range s.alts.Diagrams {
			fmt.Fprintf(&b, "  %d. %s\n     %s\n", i+1, d.Title, theme.ResourceLine.Render(d.URL))
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		Render(b.String())
}
