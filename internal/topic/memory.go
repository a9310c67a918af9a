// Package topic remembers the last accepted topic keyword per session.
package topic

import (
	"hash/fnv"
	"sync"
)

// GlobalKey holds the most recent keyword accepted in any session. The
// leading NUL keeps it out of the space of client session ids.
const GlobalKey = "\x00global"

const shardCount = 32

type shard struct {
	mu   sync.RWMutex
	keys map[string]string
}

// Memory maps session ids to their last accepted keyword. Keys are striped
// across independently locked shards so sessions do not contend with each
// other. Within one session the last writer wins.
type Memory struct {
	shards [shardCount]*shard
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	m := &Memory{}
	for i := range m.shards {
		m.shards[i] = &shard{keys: make(map[string]string)}
	}
	return m
}

func (m *Memory) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%shardCount]
}

// Get returns the keyword stored for exactly this session id.
func (m *Memory) Get(sessionID string) (string, bool) {
	s := m.shardFor(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	kw, ok := s.keys[sessionID]
	return kw, ok
}

// Recall returns the session's keyword, falling back to the global keyword
// and then to the empty string.
func (m *Memory) Recall(sessionID string) string {
	if kw, ok := m.Get(sessionID); ok {
		return kw
	}
	if kw, ok := m.Get(GlobalKey); ok {
		return kw
	}
	return ""
}

// Remember stores keyword for the session and as the global keyword.
// Empty keywords are ignored.
func (m *Memory) Remember(sessionID, keyword string) {
	if keyword == "" {
		return
	}
	m.set(sessionID, keyword)
	m.set(GlobalKey, keyword)
}

func (m *Memory) set(key, keyword string) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.keys[key] = keyword
	s.mu.Unlock()
}
