package keyword

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abhisek/gilbot/internal/llm"
	"github.com/abhisek/gilbot/internal/topic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answer(s string) llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(s)}
}

func TestExtract_AcceptedKeywordIsRemembered(t *testing.T) {
	mem := topic.NewMemory()
	mock := llm.NewMockProvider(answer(`{"keyword":"  Pythagorean Theorem "}`))
	e := New(mock, mem, nil)

	kw := e.Extract(context.Background(), "how do I find the hypotenuse", DefaultPurpose, "s1", "")
	assert.Equal(t, "pythagorean theorem", kw)

	got, ok := mem.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "pythagorean theorem", got)
	assert.Equal(t, "pythagorean theorem", mem.Recall("someone-else"), "global key is updated too")
}

func TestExtract_PromptShape(t *testing.T) {
	mock := llm.NewMockProvider(answer(`{"keyword":"area"}`))
	e := New(mock, topic.NewMemory(), nil)

	e.Extract(context.Background(), "what is this shape's area", DefaultPurpose, "s1", "A = \\pi r^2")

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, "Extract a single math keyword useful for unified lookup. If irrelevant, return 'none'.", req.System)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "User question: what is this shape's area\n\nMathPix OCR from image:\nA = \\pi r^2", req.Messages[0].Content)
	require.NotNil(t, req.Schema)
	assert.Equal(t, "math-keyword", req.Schema.Name)
}

func TestExtract_NoOCRSectionWhenEmpty(t *testing.T) {
	assert.Equal(t, "User question: q", UserPrompt("q", ""))
}

func TestExtract_BannedFallsBackToSession(t *testing.T) {
	for term := range BannedTerms {
		t.Run(term, func(t *testing.T) {
			mem := topic.NewMemory()
			mem.Remember("s1", "triangle")
			mem.Remember("s2", "circle") // global is now circle

			mock := llm.NewMockProvider(answer(`{"keyword":"` + strings.ToUpper(term) + `"}`))
			res := New(mock, mem, nil).ExtractDetailed(context.Background(), "show me a video", DefaultPurpose, "s1", "")

			assert.Equal(t, "triangle", res.Keyword)
			assert.Equal(t, OutcomeBanned, res.Outcome)
			got, _ := mem.Get("s1")
			assert.Equal(t, "triangle", got, "memory must not change on a banned extraction")
			assert.Equal(t, "circle", mem.Recall(topic.GlobalKey))
		})
	}
}

func TestExtract_BannedFallsBackToGlobalThenEmpty(t *testing.T) {
	mem := topic.NewMemory()
	mem.Remember("other", "slope")

	mock := llm.NewMockProvider(answer(`{"keyword":"none"}`), answer(`{"keyword":""}`))
	e := New(mock, mem, nil)

	assert.Equal(t, "slope", e.Extract(context.Background(), "hi", DefaultPurpose, "new", ""))

	empty := New(llm.NewMockProvider(answer(`{"keyword":"none of these"}`)), topic.NewMemory(), nil)
	assert.Equal(t, "", empty.Extract(context.Background(), "hi", DefaultPurpose, "new", ""))
}

func TestExtract_BannedIsIdempotent(t *testing.T) {
	mem := topic.NewMemory()
	mem.Remember("s1", "angle")
	mock := llm.NewMockProvider(answer(`{"keyword":"video"}`), answer(`{"keyword":"video"}`))
	e := New(mock, mem, nil)

	first := e.Extract(context.Background(), "video please", DefaultPurpose, "s1", "")
	second := e.Extract(context.Background(), "video please", DefaultPurpose, "s1", "")
	assert.Equal(t, first, second)
	assert.Equal(t, "angle", second)
}

func TestExtract_ProviderErrorFallsBack(t *testing.T) {
	mem := topic.NewMemory()
	mem.Remember("s1", "parallel lines")
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("timeout")}})

	res := New(mock, mem, nil).ExtractDetailed(context.Background(), "and then?", DefaultPurpose, "s1", "")
	assert.Equal(t, "parallel lines", res.Keyword)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Error(t, res.Err)
}

func TestExtract_PlainTextReplyFromOpenAICompatibleModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Triangle Area"},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(server.Close)

	provider, err := llm.NewOpenAIProvider(llm.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	mem := topic.NewMemory()
	mem.Remember("s1", "parallel lines")
	res := New(provider, mem, nil).ExtractDetailed(context.Background(), "how do I find the area of a triangle", DefaultPurpose, "s1", "")

	assert.Equal(t, "triangle area", res.Keyword)
	assert.Equal(t, OutcomeAccepted, res.Outcome)
	assert.NoError(t, res.Err)
	got, _ := mem.Get("s1")
	assert.Equal(t, "triangle area", got)
}

func TestExtract_InvalidResponseWithoutContentFallsBack(t *testing.T) {
	mem := topic.NewMemory()
	mem.Remember("s1", "circles")
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrInvalidResponse{Err: errors.New("blocked")}})

	res := New(mock, mem, nil).ExtractDetailed(context.Background(), "and then?", DefaultPurpose, "s1", "")
	assert.Equal(t, "circles", res.Keyword)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestExtract_DefaultsPurpose(t *testing.T) {
	mock := llm.NewMockProvider(answer(`{"keyword":"angle"}`))
	New(mock, topic.NewMemory(), nil).Extract(context.Background(), "q", "", "s1", "")
	assert.Contains(t, mock.Calls[0].System, "useful for unified lookup")
}

func TestParseKeyword(t *testing.T) {
	tests := map[string]string{
		`{"keyword":"circle"}`: "circle",
		`"Circle."`:            "circle",
		`Circle`:               "circle",
		`'slope'`:              "slope",
		`{"topic":"circle"}`:   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(parseKeyword(json.RawMessage(in))), in)
	}
}

func TestIsBanned(t *testing.T) {
	assert.True(t, IsBanned(""))
	assert.True(t, IsBanned("none of the above"))
	assert.False(t, IsBanned("none of the angles"))
	assert.False(t, IsBanned("triangle"))
}
