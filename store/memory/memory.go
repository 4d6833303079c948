// Package memory provides an in-process RunStore. Runs vanish on restart;
// it is the default backend and the one tests use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/smallnest/research-assistant/store"
)

// MemoryRunStore implements store.RunStore with a map guarded by a mutex.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]*store.Run
}

// NewMemoryRunStore creates an empty in-memory run store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{
		runs: make(map[string]*store.Run),
	}
}

// Save stores a run, replacing any run with the same ID.
func (s *MemoryRunStore) Save(ctx context.Context, run *store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *run
	cp.Outputs = append([]store.StageOutput(nil), run.Outputs...)
	s.runs[run.ID] = &cp
	return nil
}

// Load retrieves a run by ID.
func (s *MemoryRunStore) Load(ctx context.Context, runID string) (*store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}
	cp := *run
	cp.Outputs = append([]store.StageOutput(nil), run.Outputs...)
	return &cp, nil
}

// ListBySession returns all runs for a session ordered by start time.
func (s *MemoryRunStore) ListBySession(ctx context.Context, sessionID string) ([]*store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []*store.Run
	for _, run := range s.runs {
		if run.SessionID == sessionID {
			cp := *run
			cp.Outputs = append([]store.StageOutput(nil), run.Outputs...)
			runs = append(runs, &cp)
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
	return runs, nil
}

// Delete removes a run.
func (s *MemoryRunStore) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}
	delete(s.runs, runID)
	return nil
}

// Clear removes all runs for a session.
func (s *MemoryRunStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, run := range s.runs {
		if run.SessionID == sessionID {
			delete(s.runs, id)
		}
	}
	return nil
}
