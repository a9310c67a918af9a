// Package layout frames the active screen between a one-line header and a
// one-line footer of key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/gilbot/internal/ui/theme"
)

const (
	MinWidth  = 48
	MinHeight = 12
)

// Brand is shown at the left of the header.
const Brand = "Mr. Gilbot"

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal cannot fit a usable chat.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the user to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Hint.Render(fmt.Sprintf("Resize to at least %dx%d (now %dx%d)", MinWidth, MinHeight, width, height)))
}

// RenderHeader renders "Brand · title" on the left and status on the right.
// The status is dropped when it does not fit.
func RenderHeader(title, status string, width int) string {
	left := theme.Title.Render(Brand)
	if title != "" {
		left += theme.Hint.Render(" · ") + theme.HeaderText.Render(title)
	}
	right := theme.Hint.Render(status)

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if status == "" || gap < 1 {
		right, gap = "", max(width-2-lipgloss.Width(left), 0)
	}
	return theme.Bar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// RenderFooter renders the key hints separated by dots.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, theme.HintKey.Render(h.Key)+" "+theme.Hint.Render(h.Description))
	}
	return theme.Bar.Width(width).Render(strings.Join(parts, theme.Hint.Render("  ·  ")))
}

// RenderFrame stacks header, content and footer, giving the content all
// remaining rows.
func RenderFrame(header, content, footer string, width, height int) string {
	rows := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(rows).MaxHeight(rows).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
