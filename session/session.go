// Package session manages per-user conversation sessions. Sessions live in
// process memory only: they are created on first contact or reused by
// identifier, and disappear on restart.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is a single conversation entry.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Author    string    `json:"author,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one conversation, owned by (app, user).
type Session struct {
	ID        string    `json:"id"`
	AppName   string    `json:"app_name"`
	UserID    string    `json:"user_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	mu sync.RWMutex
}

// Manager holds sessions for one application, keyed by (app, user, id).
type Manager struct {
	appName    string
	maxHistory int

	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager creates a session manager for the given application.
// maxHistory caps per-session message history; zero means unlimited.
func NewManager(appName string, maxHistory int) *Manager {
	return &Manager{
		appName:    appName,
		maxHistory: maxHistory,
		sessions:   make(map[string]*Session),
	}
}

func (m *Manager) key(userID, sessionID string) string {
	return m.appName + "/" + userID + "/" + sessionID
}

// Create makes a new session for the user with a fresh identifier.
func (m *Manager) Create(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	s := &Session{
		ID:        uuid.New().String(),
		AppName:   m.appName,
		UserID:    userID,
		Messages:  make([]Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[m.key(userID, s.ID)] = s
	return s
}

// Get retrieves a session by identifier.
func (m *Manager) Get(userID, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[m.key(userID, sessionID)]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return s, nil
}

// GetOrCreate returns the existing session when sessionID names one owned by
// the user, and creates a fresh session otherwise (including for an empty
// or unknown identifier).
func (m *Manager) GetOrCreate(userID, sessionID string) *Session {
	if sessionID != "" {
		if s, err := m.Get(userID, sessionID); err == nil {
			return s
		}
	}
	return m.Create(userID)
}

// Delete removes a session.
func (m *Manager) Delete(userID, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, m.key(userID, sessionID))
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// AddMessage appends a message to the session and returns its identifier.
func (m *Manager) AddMessage(s *Session, role, author, content string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Author:    author,
		Content:   content,
		Timestamp: time.Now(),
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = msg.Timestamp

	if m.maxHistory > 0 && len(s.Messages) > m.maxHistory {
		s.Messages = s.Messages[len(s.Messages)-m.maxHistory:]
	}
	return msg.ID
}

// History returns a copy of the session's messages.
func (m *Manager) History(s *Session) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)
	return msgs
}
