package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/gilbot/internal/catalog"
	"github.com/abhisek/gilbot/internal/llm"
	"github.com/abhisek/gilbot/internal/ocr"
	"github.com/abhisek/gilbot/internal/resolver"
	"github.com/abhisek/gilbot/internal/session"
	"github.com/abhisek/gilbot/internal/store"
)

func testCatalog() *catalog.Store {
	return catalog.NewStore(
		catalog.NewTable(catalog.KindLesson, []catalog.Entry{
			{Kind: catalog.KindLesson, ID: "1.1", Title: "Points, Lines and Planes", Keywords: []string{"line", "plane"}},
			{Kind: catalog.KindLesson, ID: "4.2", Title: "Pythagorean Theorem", Keywords: []string{"pythagorean theorem", "right triangle"}},
			{Kind: catalog.KindLesson, ID: "4.3", Title: "Special Right Triangles", Keywords: []string{"right triangle", "pythagorean theorem"}},
		}),
		catalog.NewTable(catalog.KindDiagram, []catalog.Entry{
			{Kind: catalog.KindDiagram, ID: "abc123", Title: "Pythagoras Explorer", Keywords: []string{"pythagorean theorem"}},
			{Kind: catalog.KindDiagram, ID: "def456", Title: "Proof Without Words", Keywords: []string{"pythagorean theorem"}},
		}),
		catalog.NewTable(catalog.KindVideo, []catalog.Entry{
			{Kind: catalog.KindVideo, ID: "vid1", Title: "Intro to the Pythagorean theorem", Keywords: []string{"pythagorean theorem"}, URL: "https://www.youtube.com/watch?v=vid1"},
			{Kind: catalog.KindVideo, ID: "vid2", Title: "Pythagorean theorem example", Keywords: []string{"pythagorean theorem"}, URL: "https://www.youtube.com/watch?v=vid2"},
		}),
	)
}

func kwAnswer(kw string) llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(`{"keyword":"` + kw + `"}`)}
}

func textAnswer(s string) llm.MockResponse {
	b, _ := json.Marshal(s)
	return llm.MockResponse{Content: b}
}

type recordedLookups struct {
	mu     sync.Mutex
	events []store.KeywordLookupEventData
}

func (r *recordedLookups) AppendKeywordLookup(_ context.Context, data store.KeywordLookupEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return nil
}

func newTestService(provider llm.Provider, deps Deps) *Service {
	deps.Provider = provider
	if deps.Catalog == nil {
		deps.Catalog = testCatalog()
	}
	return NewService(deps, DefaultConfig())
}

func TestAsk_RightTriangleScenario(t *testing.T) {
	mock := llm.NewMockProvider(
		kwAnswer("pythagorean theorem"),
		textAnswer("What do you already know about the legs? Check your notes for: Pythagorean Theorem. Let me show you an interactive activity."),
	)
	svc := newTestService(mock, Deps{})

	reply, err := svc.Ask(t.Context(), AskInput{Question: "how do I find the hypotenuse of a right triangle", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, "pythagorean theorem", reply.Keyword)
	assert.Equal(t, "Pythagorean Theorem", reply.LessonPrimary)
	assert.Equal(t, []string{"Special Right Triangles"}, reply.LessonAlternates)

	assert.Equal(t, "abc123", reply.DiagramID)
	assert.Equal(t, "https://www.geogebra.org/m/abc123", reply.DiagramURL)
	require.Len(t, reply.DiagramAlternates, 1)
	assert.Equal(t, DiagramRef{MaterialID: "def456", URL: "https://www.geogebra.org/m/def456", Title: "Proof Without Words"}, reply.DiagramAlternates[0])
	assert.Empty(t, reply.DiagramFallback)

	assert.Nil(t, reply.Video, "no video asked for or mentioned")

	require.Equal(t, 2, mock.CallCount())
	assert.Equal(t, llm.RoleUser, mock.Calls[1].Messages[0].Role)
	assert.Len(t, mock.Calls[1].Messages, 1)
	assert.Contains(t, mock.Calls[1].System, "Check your notes for: Pythagorean Theorem")
	assert.Nil(t, mock.Calls[1].Schema, "replies are free text")
}

func TestAsk_LessonGateAndHistory(t *testing.T) {
	mock := llm.NewMockProvider(
		kwAnswer("pythagorean theorem"), textAnswer("First answer."),
		kwAnswer("none"), textAnswer("Second answer."),
		kwAnswer("none"), textAnswer("Third answer."),
		kwAnswer("none"), textAnswer("Fourth answer."),
	)
	svc := newTestService(mock, Deps{})
	ctx := t.Context()

	first, err := svc.Ask(ctx, AskInput{Question: "hypotenuse?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Pythagorean Theorem", first.LessonPrimary)

	second, err := svc.Ask(ctx, AskInput{Question: "what about the other side?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "pythagorean theorem", second.Keyword, "banned answer falls back to remembered topic")
	assert.Equal(t, "Pythagorean Theorem", second.LessonPrimary, "second turn still suggests the lesson")

	third, err := svc.Ask(ctx, AskInput{Question: "and then?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Empty(t, third.LessonPrimary)
	assert.Empty(t, third.LessonAlternates)
	assert.NotContains(t, mock.Calls[5].System, "Check your notes for")

	fourth, err := svc.Ask(ctx, AskInput{Question: "which lesson covers this?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Pythagorean Theorem", fourth.LessonPrimary, "review words reopen the gate")

	// Three prior turns are replayed as user/assistant pairs.
	msgs := mock.Calls[7].Messages
	require.Len(t, msgs, 7)
	assert.Equal(t, "hypotenuse?", msgs[0].Content)
	assert.Equal(t, "First answer.", msgs[1].Content)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "which lesson covers this?", msgs[6].Content)
}

func TestAsk_HistoryWindowIsBounded(t *testing.T) {
	mock := llm.NewMockProvider()
	svc := newTestService(mock, Deps{})
	for i := range 6 {
		mock.AddResponse(kwAnswer("pythagorean theorem"))
		mock.AddResponse(textAnswer(fmt.Sprintf("answer %d", i)))
		_, err := svc.Ask(t.Context(), AskInput{Question: fmt.Sprintf("question %d", i), SessionID: "s1"})
		require.NoError(t, err)
	}

	last := mock.Calls[len(mock.Calls)-1].Messages
	require.Len(t, last, 2*session.ContextWindow+1)
	assert.Equal(t, "question 1", last[0].Content)
	assert.Equal(t, "answer 4", last[len(last)-2].Content)
}

func TestAsk_VideoRequested(t *testing.T) {
	mock := llm.NewMockProvider(
		kwAnswer("pythagorean theorem"),
		textAnswer("Think about how $a^2$ and $b^2$ relate."),
	)
	svc := newTestService(mock, Deps{})

	reply, err := svc.Ask(t.Context(), AskInput{Question: "is there a Khan video on this?", SessionID: "s1"})
	require.NoError(t, err)

	require.NotNil(t, reply.Video)
	assert.Equal(t, VideoRef{Title: "Intro to the Pythagorean theorem", VideoID: "vid1", URL: "https://www.youtube.com/watch?v=vid1"}, reply.Video.Primary)
	require.Len(t, reply.Video.Alternates, 1)
	assert.Equal(t, "vid2", reply.Video.Alternates[0].VideoID)
	assert.True(t, strings.HasSuffix(reply.Text, "\n\n"+VideoCourtesyLine))
}

func TestAsk_VideoMentionedByReply(t *testing.T) {
	mock := llm.NewMockProvider(
		kwAnswer("pythagorean theorem"),
		textAnswer("A short video could help here."),
	)
	svc := newTestService(mock, Deps{})

	reply, err := svc.Ask(t.Context(), AskInput{Question: "hypotenuse?", SessionID: "s1"})
	require.NoError(t, err)
	require.NotNil(t, reply.Video)
	assert.Equal(t, "A short video could help here.", reply.Text, "no courtesy line when the reply already mentions a video")
}

func TestAsk_DiagramFallback(t *testing.T) {
	mock := llm.NewMockProvider(
		kwAnswer("circle"),
		textAnswer("Picture a diagram of the circle first."),
	)
	svc := newTestService(mock, Deps{})

	reply, err := svc.Ask(t.Context(), AskInput{Question: "circumference?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Empty(t, reply.DiagramID)
	assert.Equal(t, resolver.DiagramFallbackURL, reply.DiagramFallback)
	assert.Empty(t, reply.LessonPrimary)
	assert.Nil(t, reply.Video)
}

func TestAsk_SanitizesReply(t *testing.T) {
	mock := llm.NewMockProvider(
		kwAnswer("pythagorean theorem"),
		textAnswer("Use \\(a^2 + b^2\\) and [WolframAlpha](https://www.wolframalpha.com/input?i=a%5E2)."),
	)
	svc := newTestService(mock, Deps{})

	reply, err := svc.Ask(t.Context(), AskInput{Question: "hypotenuse?", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Use $a^2 + b^2$ and .", reply.Text)
}

func TestAsk_MissingInput(t *testing.T) {
	mock := llm.NewMockProvider()
	sessions := session.NewStore()
	svc := newTestService(mock, Deps{Sessions: sessions})

	reply, err := svc.Ask(t.Context(), AskInput{Question: "   "})
	require.NoError(t, err)
	assert.Equal(t, MissingInputMessage, reply.Text)
	assert.Zero(t, mock.CallCount())
	assert.Zero(t, sessions.Len(session.DefaultID))
}

func TestAsk_ReplyFailureApologizes(t *testing.T) {
	mock := llm.NewMockProvider(
		kwAnswer("pythagorean theorem"),
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("boom")}},
	)
	sessions := session.NewStore()
	svc := newTestService(mock, Deps{Sessions: sessions})

	reply, err := svc.Ask(t.Context(), AskInput{Question: "hypotenuse?"})
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, reply.Text)
	assert.Equal(t, 1, sessions.Len(session.DefaultID), "the turn is still recorded")
}

func TestAsk_ExtractionFailureStillAnswers(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: context.DeadlineExceeded},
		textAnswer("What are you trying to find?"),
	)
	svc := newTestService(mock, Deps{})

	reply, err := svc.Ask(t.Context(), AskInput{Question: "help"})
	require.NoError(t, err)
	assert.Equal(t, "What are you trying to find?", reply.Text)
	assert.Empty(t, reply.Keyword)
	assert.Empty(t, reply.LessonPrimary)
}

func TestAsk_ImageTextIsMerged(t *testing.T) {
	mock := llm.NewMockProvider(kwAnswer("pythagorean theorem"), textAnswer("Let's look at it."))
	reader := &ocr.Static{Text: "  x^2 + 4^2 = 5^2 "}
	sessions := session.NewStore()
	svc := newTestService(mock, Deps{OCR: reader, Sessions: sessions})

	_, err := svc.Ask(t.Context(), AskInput{Question: "solve this", SessionID: "s1", Image: []byte{0x89, 'P', 'N', 'G'}})
	require.NoError(t, err)

	assert.Equal(t, 1, reader.Calls)
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "MathPix OCR from image:\nx^2 + 4^2 = 5^2")
	assert.Equal(t, "solve this\n\nExtracted from screenshot:\nx^2 + 4^2 = 5^2", mock.Calls[1].Messages[0].Content)

	turns := sessions.Window("s1", 1)
	require.Len(t, turns, 1)
	assert.Equal(t, "solve this", turns[0].Question, "history keeps the typed question")
}

func TestAsk_ImageOnly(t *testing.T) {
	mock := llm.NewMockProvider(kwAnswer("pythagorean theorem"), textAnswer("What does the picture show?"))
	svc := newTestService(mock, Deps{OCR: &ocr.Static{Text: "a^2 + b^2"}})

	reply, err := svc.Ask(t.Context(), AskInput{Image: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, "What does the picture show?", reply.Text)
}

func TestAsk_CanceledContext(t *testing.T) {
	mock := llm.NewMockProvider()
	svc := newTestService(mock, Deps{})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	reply, err := svc.Ask(ctx, AskInput{Question: "hypotenuse?"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, reply)
	assert.Zero(t, mock.CallCount())
}

func TestAsk_RecordsLookups(t *testing.T) {
	mock := llm.NewMockProvider(kwAnswer("pythagorean theorem"), textAnswer("ok"))
	rec := &recordedLookups{}
	svc := newTestService(mock, Deps{Lookups: rec})

	_, err := svc.Ask(t.Context(), AskInput{Question: "hypotenuse?", SessionID: "s9"})
	require.NoError(t, err)

	require.Len(t, rec.events, 3)
	kinds := []string{rec.events[0].Kind, rec.events[1].Kind, rec.events[2].Kind}
	assert.Equal(t, []string{"lesson", "diagram", "video"}, kinds)
	for _, ev := range rec.events {
		assert.Equal(t, "s9", ev.SessionID)
		assert.Equal(t, "pythagorean theorem", ev.Keyword)
		assert.Equal(t, store.OutcomeResolved, ev.Outcome)
		assert.Equal(t, string(resolver.MatchExact), ev.Match)
	}
	assert.Equal(t, "4.2", rec.events[0].PrimaryID)
	assert.Equal(t, 1, rec.events[1].Alternates)
}

func TestAlternates(t *testing.T) {
	mock := llm.NewMockProvider(kwAnswer("pythagorean theorem"), textAnswer("ok"))
	svc := newTestService(mock, Deps{})

	_, err := svc.Ask(t.Context(), AskInput{Question: "hypotenuse?", SessionID: "s1"})
	require.NoError(t, err)

	alt := svc.Alternates(t.Context(), "s1")
	require.Len(t, alt.Videos, 1)
	assert.Equal(t, "vid2", alt.Videos[0].VideoID)
	require.Len(t, alt.Diagrams, 1)
	assert.Equal(t, "def456", alt.Diagrams[0].MaterialID)
}

func TestAlternates_UnknownSessionIsEmpty(t *testing.T) {
	mock := llm.NewMockProvider(kwAnswer("pythagorean theorem"), textAnswer("ok"))
	svc := newTestService(mock, Deps{})

	// Another session's topic does not leak through the global fallback.
	_, err := svc.Ask(t.Context(), AskInput{Question: "hypotenuse?", SessionID: "s1"})
	require.NoError(t, err)

	alt := svc.Alternates(t.Context(), "someone-else")
	b, err := json.Marshal(alt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"video_alternates":[],"geogebra_alternates":[]}`, string(b))
}

// purposeProvider answers by call purpose so it can serve concurrent
// requests.
type purposeProvider struct{}

func (purposeProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	if llm.PurposeFrom(ctx) == llm.PurposeKeyword {
		return &llm.Response{Content: json.RawMessage(`{"keyword":"pythagorean theorem"}`)}, nil
	}
	return &llm.Response{Content: json.RawMessage(`"What do you notice about the sides?"`)}, nil
}

func (purposeProvider) ModelID() string { return "purpose" }

func TestAsk_ConcurrentSessions(t *testing.T) {
	sessions := session.NewStore()
	svc := newTestService(purposeProvider{}, Deps{Sessions: sessions})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			for range 5 {
				_, err := svc.Ask(context.Background(), AskInput{Question: "hypotenuse?", SessionID: id})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for i := range 8 {
		assert.Equal(t, 5, sessions.Len(fmt.Sprintf("s%d", i)))
	}
}
