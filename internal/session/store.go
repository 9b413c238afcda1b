package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMaxSessions = 1000
	MaxTurnsPerSession = 50
)

// Session is one visitor's history plus the turns it produced, kept so their
// exports stay downloadable. T is the turn type.
type Session[T any] struct {
	ID        string
	CreatedAt time.Time
	History   *History

	mu        sync.Mutex
	lastSeen  time.Time
	turns     map[string]T
	turnOrder []string
}

// AddTurn stores turn under id, dropping the oldest turn past the per-session cap.
func (s *Session[T]) AddTurn(id string, turn T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.turns[id]; !exists {
		s.turnOrder = append(s.turnOrder, id)
	}
	s.turns[id] = turn
	for len(s.turnOrder) > MaxTurnsPerSession {
		delete(s.turns, s.turnOrder[0])
		s.turnOrder = s.turnOrder[1:]
	}
}

func (s *Session[T]) Turn(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn, ok := s.turns[id]
	return turn, ok
}

func (s *Session[T]) TurnIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.turnOrder))
	copy(out, s.turnOrder)
	return out
}

func (s *Session[T]) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session[T]) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store holds sessions by ID and evicts the least recently used one past
// maxSessions.
type Store[T any] struct {
	mu          sync.Mutex
	sessions    map[string]*Session[T]
	maxSessions int
	now         func() time.Time
}

func NewStore[T any](maxSessions int) *Store[T] {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Store[T]{
		sessions:    make(map[string]*Session[T]),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// GetOrCreate returns the session for id. A blank or malformed id gets a
// fresh session with a generated UUID; created reports whether a new session
// was made.
func (s *Store[T]) GetOrCreate(id string) (sess *Session[T], created bool) {
	id = normalizeID(id)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if existing, ok := s.sessions[id]; ok {
			existing.touch(now)
			return existing, false
		}
	} else {
		id = uuid.NewString()
	}

	sess = &Session[T]{
		ID:        id,
		CreatedAt: now.UTC(),
		History:   &History{now: s.now},
		lastSeen:  now,
		turns:     make(map[string]T),
	}
	s.sessions[id] = sess
	s.evictLocked(id)
	return sess, true
}

func (s *Store[T]) Get(id string) (*Session[T], bool) {
	id = normalizeID(id)
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// evictLocked drops least recently used sessions until the store fits,
// never the one just created under keep.
func (s *Store[T]) evictLocked(keep string) {
	for len(s.sessions) > s.maxSessions {
		var oldestID string
		var oldest time.Time
		for id, sess := range s.sessions {
			if id == keep {
				continue
			}
			seen := sess.seen()
			if oldestID == "" || seen.Before(oldest) {
				oldestID, oldest = id, seen
			}
		}
		delete(s.sessions, oldestID)
	}
}

func normalizeID(id string) string {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return ""
	}
	return parsed.String()
}
