// Package memory holds the short-term conversation buffer shared by the
// agent orchestration across queries.
package memory

import (
	"strings"
	"sync"
)

// Entry is one conversational turn.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Memory is an append-only bounded buffer of role/content pairs. Beyond
// capacity the oldest entry is evicted first, strict FIFO.
type Memory struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

func New(capacity int) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{capacity: capacity}
}

// Add appends a turn, evicting the oldest when over capacity.
func (m *Memory) Add(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Role: role, Content: content})
	if len(m.entries) > m.capacity {
		m.entries = m.entries[1:]
	}
}

// Entries returns a copy of the buffer in chronological order.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Context renders the buffer as readable chronological lines.
func (m *Memory) Context() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.entries))
	for i, e := range m.entries {
		lines[i] = capitalize(e.Role) + ": " + e.Content
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
