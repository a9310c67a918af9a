package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/gilbot/internal/router"
	"github.com/abhisek/gilbot/internal/screens/resources"
	"github.com/abhisek/gilbot/internal/tutor"
)

type fakeTutor struct {
	mu    sync.Mutex
	asks  []tutor.AskInput
	reply *tutor.Reply
	err   error
	alts  tutor.Alternates
}

func (f *fakeTutor) Ask(_ context.Context, in tutor.AskInput) (*tutor.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asks = append(f.asks, in)
	return f.reply, f.err
}

func (f *fakeTutor) Alternates(context.Context, string) tutor.Alternates {
	return f.alts
}

var enter = tea.KeyPressMsg{Code: tea.KeyEnter}

func send(t *testing.T, s *Screen, text string) tea.Msg {
	t.Helper()
	s.input.SetValue(text)
	_, cmd := s.Update(enter)
	require.NotNil(t, cmd)
	return cmd()
}

func TestAsk_ShowsReplyAndResources(t *testing.T) {
	ft := &fakeTutor{reply: &tutor.Reply{
		Text:          "What do you know about the legs?",
		LessonPrimary: "Pythagorean Theorem",
		DiagramURL:    "https://www.geogebra.org/m/abc123",
		Video: &tutor.VideoSuggestion{
			Primary: tutor.VideoRef{Title: "Intro", VideoID: "vid1", URL: "https://www.youtube.com/watch?v=vid1"},
		},
		Keyword: "pythagorean theorem",
	}}
	s := New(context.Background(), ft, "s1")

	msg := send(t, s, "how do I find the hypotenuse")
	assert.True(t, s.pending)

	s.Update(msg)
	assert.False(t, s.pending)

	require.Len(t, ft.asks, 1)
	assert.Equal(t, "how do I find the hypotenuse", ft.asks[0].Question)
	assert.Equal(t, "s1", ft.asks[0].SessionID)
	assert.Nil(t, ft.asks[0].Image)

	assert.Equal(t, "topic: pythagorean theorem", s.Status())

	last := s.entries[len(s.entries)-1]
	assert.Equal(t, roleTutor, last.role)
	assert.Equal(t, []string{
		"Lesson: Pythagorean Theorem",
		"Activity: https://www.geogebra.org/m/abc123",
		"Video: Intro https://www.youtube.com/watch?v=vid1",
	}, last.resources)

	view := s.View(100, 40)
	assert.Contains(t, view, "What do you know about the legs?")
	assert.Contains(t, view, "Lesson: Pythagorean Theorem")
}

func TestAsk_EmptyInputIgnored(t *testing.T) {
	s := New(context.Background(), &fakeTutor{}, "s1")
	_, cmd := s.Update(enter)
	assert.Nil(t, cmd)
	assert.Len(t, s.entries, 1)
}

func TestAsk_ErrorShown(t *testing.T) {
	ft := &fakeTutor{err: context.Canceled}
	s := New(context.Background(), ft, "s1")

	s.Update(send(t, s, "hi"))
	last := s.entries[len(s.entries)-1]
	assert.Equal(t, roleError, last.role)
	assert.Contains(t, last.text, "context canceled")
	assert.Empty(t, s.Status())
}

func TestImageCommand(t *testing.T) {
	ft := &fakeTutor{reply: &tutor.Reply{Text: "ok"}}
	s := New(context.Background(), ft, "s1")
	s.readFile = func(path string) ([]byte, error) {
		assert.Equal(t, "/tmp/problem.png", path)
		return []byte("\x89PNG"), nil
	}

	s.Update(send(t, s, "/image /tmp/problem.png what is x?"))

	require.Len(t, ft.asks, 1)
	assert.Equal(t, "what is x?", ft.asks[0].Question)
	assert.Equal(t, []byte("\x89PNG"), ft.asks[0].Image)
	assert.Equal(t, "what is x? [image: /tmp/problem.png]", s.entries[1].text)
}

func TestImageCommand_UnreadableFile(t *testing.T) {
	ft := &fakeTutor{}
	s := New(context.Background(), ft, "s1")
	s.readFile = func(string) ([]byte, error) { return nil, errors.New("no such file") }

	msg := send(t, s, "/image missing.png")
	require.IsType(t, inputErrMsg{}, msg)
	s.Update(msg)

	assert.Empty(t, ft.asks)
	assert.False(t, s.pending)
	assert.Contains(t, s.entries[len(s.entries)-1].text, "could not read image")
}

func TestMoreCommand_PushesResources(t *testing.T) {
	ft := &fakeTutor{alts: tutor.Alternates{
		Videos: []tutor.VideoRef{{Title: "Another", VideoID: "vid2", URL: "https://www.youtube.com/watch?v=vid2"}},
	}}
	s := New(context.Background(), ft, "s1")
	s.topic = "pythagorean theorem"

	msg := send(t, s, "/more")
	require.IsType(t, alternatesMsg{}, msg)

	_, cmd := s.Update(msg)
	require.NotNil(t, cmd)

	var pushed *resources.Screen
	for _, m := range collect(cmd) {
		if p, ok := m.(router.PushScreenMsg); ok {
			pushed, _ = p.Screen.(*resources.Screen)
		}
	}
	require.NotNil(t, pushed)
	assert.Contains(t, pushed.View(80, 20), "Another")
	assert.Empty(t, ft.asks)
}

// collect runs a command and flattens batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestPendingBlocksSecondQuestion(t *testing.T) {
	ft := &fakeTutor{reply: &tutor.Reply{Text: "ok"}}
	s := New(context.Background(), ft, "s1")

	send(t, s, "first")
	s.input.SetValue("second")
	_, cmd := s.Update(enter)
	assert.Nil(t, cmd)
}
