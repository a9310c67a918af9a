// Package theme holds the chat client's palette and text styles.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Chalkboard palette.
var (
	Board   = lipgloss.Color("#1F3A2E")
	Chalk   = lipgloss.Color("#F1F5F0")
	Dust    = lipgloss.Color("#9DB3A6")
	Yellow  = lipgloss.Color("#F5D76E")
	Sky     = lipgloss.Color("#7CC6E8")
	Coral   = lipgloss.Color("#F28B82")
	Outline = lipgloss.Color("#3E5C4D")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(Yellow)

	HeaderText = lipgloss.NewStyle().Foreground(Chalk)

	Hint = lipgloss.NewStyle().Foreground(Dust)

	HintKey = lipgloss.NewStyle().Foreground(Chalk).Bold(true)

	Bar = lipgloss.NewStyle().Background(Board).Padding(0, 1)
)

// Transcript
var (
	StudentLabel = lipgloss.NewStyle().Foreground(Sky).Bold(true)

	TutorLabel = lipgloss.NewStyle().Foreground(Yellow).Bold(true)

	ResourceLine = lipgloss.NewStyle().Foreground(Sky).Italic(true)

	Notice = lipgloss.NewStyle().Foreground(Dust).Italic(true)

	ErrorText = lipgloss.NewStyle().Foreground(Coral)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Outline).
		Padding(0, 1)
)
