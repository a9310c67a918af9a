// Package session keeps the in-process conversation history of each
// tutoring session. History is volatile and lives for the process lifetime.
package session

import (
	"sync"
	"time"
)

// DefaultID is used when a request carries no session id.
const DefaultID = "default"

// ContextWindow is the number of most recent turns replayed to the reply
// generator as conversation context.
const ContextWindow = 4

// Turn is one answered question.
type Turn struct {
	// Question is the student's typed text, before OCR text is merged in.
	Question string
	// Answer is the reply text shown to the student.
	Answer string
	// Payload is the full response returned to the caller.
	Payload any
	At      time.Time
}

type history struct {
	mu    sync.RWMutex
	turns []Turn
}

// Store holds the turn history per session id. Sessions are created lazily
// and never destroyed. Appends to different sessions do not block each
// other; appends to one session are ordered by arrival.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*history
	maxTurns int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxTurns caps the stored turns per session, dropping the oldest.
// Zero or negative keeps every turn.
func WithMaxTurns(n int) Option {
	return func(s *Store) { s.maxTurns = n }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{sessions: make(map[string]*history)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NormalizeID maps an empty id to DefaultID.
func NormalizeID(id string) string {
	if id == "" {
		return DefaultID
	}
	return id
}

func (s *Store) get(id string, create bool) *history {
	id = NormalizeID(id)
	s.mu.RLock()
	h, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok || !create {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.sessions[id]; ok {
		return h
	}
	h = &history{}
	s.sessions[id] = h
	return h
}

// Touch creates the session if it does not exist yet.
func (s *Store) Touch(id string) {
	s.get(id, true)
}

// Append records a turn at the end of the session's history.
func (s *Store) Append(id string, t Turn) {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	h := s.get(id, true)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, t)
	if s.maxTurns > 0 && len(h.turns) > s.maxTurns {
		h.turns = append([]Turn(nil), h.turns[len(h.turns)-s.maxTurns:]...)
	}
}

// Len returns the number of stored turns.
func (s *Store) Len(id string) int {
	h := s.get(id, false)
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Window returns up to n of the most recent turns, oldest first. The
// returned slice is a copy.
func (s *Store) Window(id string, n int) []Turn {
	h := s.get(id, false)
	if h == nil || n <= 0 {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	start := len(h.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(h.turns)-start)
	copy(out, h.turns[start:])
	return out
}
