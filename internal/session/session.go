// Package session tracks per-conversation chat history in memory.
// Sessions are LRU-bounded and expire after a TTL measured from their
// last use, so an abandoned conversation costs nothing after the window
// passes.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Role values for chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

// Session is a conversation's retained state.
type Session struct {
	ID       string    `json:"id"`
	History  []Message `json:"history"`
	LastSeen time.Time `json:"last_seen"`
}

// Manager owns all live sessions. All methods are safe for concurrent
// use.
type Manager struct {
	mu         sync.Mutex
	sessions   *lru.Cache[string, *Session]
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
}

// NewManager creates a Manager holding at most maxSessions sessions,
// each expiring ttl after its last use. History is capped at maxHistory
// messages per session; older messages fall off the front.
func NewManager(maxSessions int, ttl time.Duration, maxHistory int) (*Manager, error) {
	cache, err := lru.New[string, *Session](maxSessions)
	if err != nil {
		return nil, err
	}
	return &Manager{
		sessions:   cache,
		ttl:        ttl,
		maxHistory: maxHistory,
		now:        time.Now,
	}, nil
}

// Get returns the session for id, creating a fresh one when id is empty,
// unknown, or expired. The returned session is a snapshot; callers must
// not mutate its history.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(id)
}

func (m *Manager) getLocked(id string) *Session {
	now := m.now()

	if id != "" {
		if sess, ok := m.sessions.Get(id); ok {
			if now.Sub(sess.LastSeen) <= m.ttl {
				sess.LastSeen = now
				return sess
			}
			m.sessions.Remove(id)
		}
	}

	sess := &Session{ID: uuid.NewString(), LastSeen: now}
	m.sessions.Add(sess.ID, sess)
	return sess
}

// Append records a message on the session for id and returns the
// session. A new session is created when id is unknown or expired.
func (m *Manager) Append(id, role, content string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.getLocked(id)
	sess.History = append(sess.History, Message{
		Role:    role,
		Content: content,
		SentAt:  m.now(),
	})
	if m.maxHistory > 0 && len(sess.History) > m.maxHistory {
		sess.History = sess.History[len(sess.History)-m.maxHistory:]
	}
	return sess
}

// Reset discards the session for id. Resetting an unknown id is a no-op.
func (m *Manager) Reset(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Remove(id)
}

// Len reports the number of live sessions, expired entries included
// until they are touched or evicted.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Len()
}
