package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, maxSessions, maxHistory int, ttl time.Duration) (*Manager, *time.Time) {
	t.Helper()
	m, err := NewManager(maxSessions, ttl, maxHistory)
	require.NoError(t, err)

	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	return m, &clock
}

func TestGetCreatesSession(t *testing.T) {
	m, _ := newTestManager(t, 10, 20, time.Hour)

	sess := m.Get("")
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID)
	assert.Empty(t, sess.History)

	again := m.Get(sess.ID)
	assert.Equal(t, sess.ID, again.ID)
	assert.Equal(t, 1, m.Len())
}

func TestGetUnknownIDCreatesFresh(t *testing.T) {
	m, _ := newTestManager(t, 10, 20, time.Hour)

	sess := m.Get("never-issued")
	assert.NotEqual(t, "never-issued", sess.ID)
}

func TestAppendAndHistoryCap(t *testing.T) {
	m, _ := newTestManager(t, 10, 3, time.Hour)

	sess := m.Append("", RoleUser, "one")
	id := sess.ID
	m.Append(id, RoleAssistant, "two")
	m.Append(id, RoleUser, "three")
	sess = m.Append(id, RoleAssistant, "four")

	require.Len(t, sess.History, 3, "history is capped to the newest messages")
	assert.Equal(t, "two", sess.History[0].Content)
	assert.Equal(t, "four", sess.History[2].Content)
	assert.Equal(t, RoleAssistant, sess.History[2].Role)
}

func TestTTLExpiry(t *testing.T) {
	m, clock := newTestManager(t, 10, 20, 30*time.Minute)

	sess := m.Append("", RoleUser, "hello")
	id := sess.ID

	*clock = clock.Add(29 * time.Minute)
	alive := m.Get(id)
	assert.Equal(t, id, alive.ID, "just inside the TTL")
	require.Len(t, alive.History, 1)

	*clock = clock.Add(31 * time.Minute)
	replaced := m.Get(id)
	assert.NotEqual(t, id, replaced.ID, "expired session is replaced")
	assert.Empty(t, replaced.History)
}

func TestGetRefreshesTTL(t *testing.T) {
	m, clock := newTestManager(t, 10, 20, 30*time.Minute)

	id := m.Get("").ID
	for i := 0; i < 4; i++ {
		*clock = clock.Add(20 * time.Minute)
		assert.Equal(t, id, m.Get(id).ID, "each touch restarts the TTL window")
	}
}

func TestReset(t *testing.T) {
	m, _ := newTestManager(t, 10, 20, time.Hour)

	id := m.Append("", RoleUser, "hello").ID
	m.Reset(id)

	replaced := m.Get(id)
	assert.NotEqual(t, id, replaced.ID)

	m.Reset("unknown") // no-op
}

func TestLRUBound(t *testing.T) {
	m, _ := newTestManager(t, 2, 20, time.Hour)

	a := m.Get("").ID
	b := m.Get("").ID
	m.Get(a) // a is now the most recent

	c := m.Get("").ID // evicts b
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, a, m.Get(a).ID)
	assert.NotEqual(t, b, m.Get(b).ID)
	_ = c
}
