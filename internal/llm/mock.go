package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// TextResponse is a canned free-text reply.
func TextResponse(text string) MockResponse {
	raw, _ := json.Marshal(text)
	return MockResponse{Content: raw}
}

// JSONResponse is a canned structured reply.
func JSONResponse(v any) MockResponse {
	raw, err := json.Marshal(v)
	return MockResponse{Content: raw, Err: err}
}

// MockProvider replays canned responses in FIFO order and records every
// request. Once the queue is drained, Fallback answers; without one the
// provider reports itself unavailable.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
	Fallback  func(Request) MockResponse
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewOfflineProvider returns a MockProvider that answers every request
// without a network: structured requests get "none" for each required
// string field and free-text requests get OfflineReply.
func NewOfflineProvider() *MockProvider {
	return &MockProvider{Fallback: offlineResponse}
}

// OfflineReply is the tutor reply produced by the offline provider.
const OfflineReply = "I'm working offline right now. What have you tried so far, and which part of the problem feels unclear?"

func offlineResponse(req Request) MockResponse {
	if req.Schema == nil {
		return TextResponse(OfflineReply)
	}
	obj := map[string]any{}
	props, _ := req.Schema.Definition["properties"].(map[string]any)
	required, _ := req.Schema.Definition["required"].([]any)
	for _, r := range required {
		name, _ := r.(string)
		prop, _ := props[name].(map[string]any)
		if t, _ := prop["type"].(string); t == "string" {
			obj[name] = "none"
		}
	}
	return JSONResponse(obj)
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	var next MockResponse
	switch {
	case len(m.responses) > 0:
		next = m.responses[0]
		m.responses = m.responses[1:]
	case m.Fallback != nil:
		next = m.Fallback(req)
	default:
		return nil, &ErrProviderUnavailable{}
	}
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{
		Content:    next.Content,
		Usage:      next.Usage,
		Model:      "mock",
		StopReason: StopEnd,
	}, nil
}

// ProviderName returns "mock".
func (m *MockProvider) ProviderName() string { return "mock" }

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
