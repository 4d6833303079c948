package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	m := NewManager("research_app", 0)

	s := m.Create("alice")
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "research_app", s.AppName)
	assert.Equal(t, "alice", s.UserID)
	assert.Empty(t, s.Messages)

	got, err := m.Get("alice", s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestGetUnknownSession(t *testing.T) {
	m := NewManager("research_app", 0)

	_, err := m.Get("alice", "nope")
	assert.Error(t, err)
}

func TestGetWrongUser(t *testing.T) {
	m := NewManager("research_app", 0)

	s := m.Create("alice")
	_, err := m.Get("bob", s.ID)
	assert.Error(t, err)
}

func TestGetOrCreate(t *testing.T) {
	m := NewManager("research_app", 0)

	created := m.GetOrCreate("alice", "")
	require.NotEmpty(t, created.ID)

	reused := m.GetOrCreate("alice", created.ID)
	assert.Same(t, created, reused)

	fresh := m.GetOrCreate("alice", "missing-id")
	assert.NotEqual(t, created.ID, fresh.ID)
	assert.Equal(t, 2, m.Len())
}

func TestAddMessageAndHistory(t *testing.T) {
	m := NewManager("research_app", 0)
	s := m.Create("alice")

	id := m.AddMessage(s, "user", "", "quantum computing")
	assert.NotEmpty(t, id)
	m.AddMessage(s, "assistant", "reviewer", "APPROVED")

	msgs := m.History(s)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "quantum computing", msgs[0].Content)
	assert.Equal(t, "reviewer", msgs[1].Author)
	assert.False(t, s.UpdatedAt.Before(s.CreatedAt))
}

func TestMaxHistoryTrimming(t *testing.T) {
	m := NewManager("research_app", 4)
	s := m.Create("alice")

	for i := 0; i < 10; i++ {
		m.AddMessage(s, "user", "", fmt.Sprintf("message %d", i))
	}

	msgs := m.History(s)
	require.Len(t, msgs, 4)
	assert.Equal(t, "message 6", msgs[0].Content)
	assert.Equal(t, "message 9", msgs[3].Content)
}

func TestDelete(t *testing.T) {
	m := NewManager("research_app", 0)
	s := m.Create("alice")

	m.Delete("alice", s.ID)
	_, err := m.Get("alice", s.ID)
	assert.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestConcurrentAccess(t *testing.T) {
	m := NewManager("research_app", 0)
	s := m.Create("alice")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.AddMessage(s, "user", "", fmt.Sprintf("m%d", n))
			m.History(s)
			m.GetOrCreate("alice", s.ID)
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.History(s), 20)
	assert.Equal(t, 1, m.Len())
}
