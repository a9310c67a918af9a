// Package chat is the terminal conversation with the tutor.
package chat

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/gilbot/internal/router"
	"github.com/abhisek/gilbot/internal/screen"
	"github.com/abhisek/gilbot/internal/screens/resources"
	"github.com/abhisek/gilbot/internal/tutor"
	"github.com/abhisek/gilbot/internal/ui/components"
	"github.com/abhisek/gilbot/internal/ui/layout"
)

const (
	cmdMore  = "/more"
	cmdImage = "/image"

	greeting = "Ask me a geometry question. Use /image <path> [question] to attach a screenshot, and /more for more videos and activities."
)

// Tutor answers questions for the chat.
type Tutor interface {
	Ask(ctx context.Context, in tutor.AskInput) (*tutor.Reply, error)
	Alternates(ctx context.Context, sessionID string) tutor.Alternates
}

type role int

const (
	roleSystem role = iota
	roleError
	roleStudent
	roleTutor
)

type entry struct {
	role      role
	text      string
	resources []string
}

// Screen implements screen.Screen for the conversation.
type Screen struct {
	ctx       context.Context
	tutor     Tutor
	sessionID string
	readFile  func(string) ([]byte, error)

	input   components.TextInput
	entries []entry
	topic   string
	pending bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

// New creates a chat screen bound to one tutoring session.
func New(ctx context.Context, t Tutor, sessionID string) *Screen {
	return &Screen{
		ctx:       ctx,
		tutor:     t,
		sessionID: sessionID,
		readFile:  os.ReadFile,
		input:     components.NewTextInput("Ask a question...", 0),
		entries:   []entry{{role: roleSystem, text: greeting}},
	}
}

func (s *Screen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *Screen) Title() string {
	return "Chat"
}

func (s *Screen) Status() string {
	if s.topic == "" {
		return ""
	}
	return "topic: " + s.topic
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: cmdMore, Description: "More resources"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		return s.handleReply(msg)

	case alternatesMsg:
		s.pending = false
		return s, tea.Batch(s.input.Focus(), router.Push(resources.New(s.topic, msg.Alternates)))

	case inputErrMsg:
		s.pending = false
		s.entries = append(s.entries, entry{role: roleError, text: msg.Err.Error()})
		return s, s.input.Focus()

	case tea.KeyMsg:
		if msg.String() == "enter" {
			return s.submit()
		}
	}

	if s.pending {
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) submit() (screen.Screen, tea.Cmd) {
	text := s.input.Value()
	if text == "" || s.pending {
		return s, nil
	}
	s.input.Reset()

	if text == cmdMore {
		s.pending = true
		s.input.Blur()
		return s, s.fetchAlternates()
	}

	question, imagePath := text, ""
	if rest, ok := strings.CutPrefix(text, cmdImage+" "); ok {
		imagePath, question, _ = strings.Cut(strings.TrimSpace(rest), " ")
		question = strings.TrimSpace(question)
	}

	display := question
	if imagePath != "" {
		display = strings.TrimSpace(fmt.Sprintf("%s [image: %s]", question, imagePath))
	}
	s.entries = append(s.entries, entry{role: roleStudent, text: display})
	s.pending = true
	s.input.Blur()
	return s, s.ask(question, imagePath)
}

func (s *Screen) ask(question, imagePath string) tea.Cmd {
	return func() tea.Msg {
		var image []byte
		if imagePath != "" {
			b, err := s.readFile(imagePath)
			if err != nil {
				return inputErrMsg{Err: fmt.Errorf("could not read image: %w", err)}
			}
			image = b
		}
		reply, err := s.tutor.Ask(s.ctx, tutor.AskInput{
			Question:  question,
			SessionID: s.sessionID,
			Image:     image,
		})
		return replyMsg{Reply: reply, Err: err}
	}
}

func (s *Screen) fetchAlternates() tea.Cmd {
	return func() tea.Msg {
		return alternatesMsg{Alternates: s.tutor.Alternates(s.ctx, s.sessionID)}
	}
}

func (s *Screen) handleReply(msg replyMsg) (screen.Screen, tea.Cmd) {
	s.pending = false
	if msg.Err != nil {
		s.entries = append(s.entries, entry{role: roleError, text: "Error: " + msg.Err.Error()})
		return s, s.input.Focus()
	}

	r := msg.Reply
	if r.Keyword != "" {
		s.topic = r.Keyword
	}
	s.entries = append(s.entries, entry{role: roleTutor, text: r.Text, resources: resourceLines(r)})
	return s, s.input.Focus()
}

// resourceLines lists the resources attached to a reply, one per line.
func resourceLines(r *tutor.Reply) []string {
	var lines []string
	if r.LessonPrimary != "" {
		line := "Lesson: " + r.LessonPrimary
		if len(r.LessonAlternates) > 0 {
			line += " (see also: " + strings.Join(r.LessonAlternates, "; ") + ")"
		}
		lines = append(lines, line)
	}
	switch {
	case r.DiagramURL != "":
		lines = append(lines, "Activity: "+r.DiagramURL)
	case r.DiagramFallback != "":
		lines = append(lines, "Activities: "+r.DiagramFallback)
	}
	if r.Video != nil {
		lines = append(lines, fmt.Sprintf("Video: %s %s", r.Video.Primary.Title, r.Video.Primary.URL))
	}
	return lines
}
