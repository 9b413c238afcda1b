// Package session keeps per-visitor conversational state in memory. Nothing
// survives a restart.
package session

import (
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Entry struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// History is an append-only chat log. It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewHistory() *History {
	return &History{now: time.Now}
}

func (h *History) Append(role Role, content string) Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	entry := Entry{Role: role, Content: content, At: now().UTC()}
	h.entries = append(h.entries, entry)
	return entry
}

// Entries returns a copy of the log in append order.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
