// Package screen defines the contract between the router and the terminal
// screens it stacks.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/gilbot/internal/ui/layout"
)

// Screen is one full-window view of the chat client.
type Screen interface {
	Init() tea.Cmd

	// Update handles a message and returns the screen to keep on the stack.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area; the header and footer are drawn by the
	// app.
	View(width, height int) string

	Title() string
}

// KeyHintProvider lets a screen choose its footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider lets a screen put a short status in the header, such as
// the current topic.
type StatusProvider interface {
	Status() string
}
