package chat

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/gilbot/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	inner := max(width-4, 10)

	var lines []string
	for _, e := range s.entries {
		lines = append(lines, renderEntry(e, inner)...)
		lines = append(lines, "")
	}
	if s.pending {
		lines = append(lines, theme.Hint.Render("Mr. Gilbot is thinking..."))
	}

	// Keep the newest lines; the input takes the last rows.
	avail := max(height-3, 1)
	if len(lines) > avail {
		lines = lines[len(lines)-avail:]
	}
	transcript := strings.Join(lines, "\n")

	input := theme.Card.Width(inner + 2).Render(s.input.View())

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Height(avail).Render(transcript),
			input,
		))
}

func renderEntry(e entry, width int) []string {
	body := lipgloss.NewStyle().Width(width).Render(e.text)

	var label string
	switch e.role {
	case roleStudent:
		label = theme.StudentLabel.Render("You")
	case roleTutor:
		label = theme.TutorLabel.Render("Mr. Gilbot")
	case roleError:
		body = theme.ErrorText.Width(width).Render(e.text)
	default:
		body = theme.Notice.Width(width).Render(e.text)
	}

	var out []string
	if label != "" {
		out = append(out, label)
	}
	out = append(out, strings.Split(body, "\n")...)
	for _, r := range e.resources {
		out = append(out, theme.ResourceLine.Width(width).Render("  "+r))
	}
	return out
}
