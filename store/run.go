// Package store defines persistence for completed pipeline runs. A run
// records what a session asked for and what each stage produced, so a
// report can be re-rendered or audited after the fact. Backends live in
// the subpackages memory, redis, sqlite and postgres.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run identifier matches nothing.
var ErrRunNotFound = errors.New("run not found")

// StageOutput is one stage's contribution to a run, in execution order.
type StageOutput struct {
	Stage     string `json:"stage"`
	OutputKey string `json:"output_key"`
	Content   string `json:"content"`
}

// Run is a completed pipeline execution.
type Run struct {
	ID         string        `json:"id"`
	AppName    string        `json:"app_name"`
	UserID     string        `json:"user_id"`
	SessionID  string        `json:"session_id"`
	Input      string        `json:"input"`
	Outputs    []StageOutput `json:"outputs"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Output returns the content a stage wrote under the given output key.
func (r *Run) Output(key string) (string, bool) {
	for _, out := range r.Outputs {
		if out.OutputKey == key {
			return out.Content, true
		}
	}
	return "", false
}

// RunStore defines the interface for run persistence
type RunStore interface {
	// Save stores a run
	Save(ctx context.Context, run *Run) error

	// Load retrieves a run by ID
	Load(ctx context.Context, runID string) (*Run, error)

	// ListBySession returns all runs for a given session, oldest first
	ListBySession(ctx context.Context, sessionID string) ([]*Run, error)

	// Delete removes a run
	Delete(ctx context.Context, runID string) error

	// Clear removes all runs for a session
	Clear(ctx context.Context, sessionID string) error
}
