package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/research-assistant/store"
)

func newTestStore(t *testing.T) *SqliteRunStore {
	t.Helper()
	s, err := NewSqliteRunStore(SqliteOptions{
		Path: filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSqliteRunStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sessionID := "sess-123"

	started := time.Now().UTC().Truncate(time.Second)
	run := &store.Run{
		ID:        "run-1",
		AppName:   "research_app",
		UserID:    "alice",
		SessionID: sessionID,
		Input:     "artificial intelligence",
		Outputs: []store.StageOutput{
			{Stage: "researcher", OutputKey: "research_findings", Content: "findings"},
			{Stage: "writer", OutputKey: "draft_report", Content: "# Report"},
			{Stage: "reviewer", OutputKey: "review_result", Content: "APPROVED"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}

	require.NoError(t, s.Save(ctx, run))

	loaded, err := s.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Input, loaded.Input)
	require.Len(t, loaded.Outputs, 3)
	assert.Equal(t, "reviewer", loaded.Outputs[2].Stage)

	// Upsert on the same ID
	run.Input = "machine learning"
	require.NoError(t, s.Save(ctx, run))
	loaded, err = s.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "machine learning", loaded.Input)

	// Second run, earlier start, same session
	run0 := &store.Run{
		ID:        "run-0",
		SessionID: sessionID,
		Outputs:   []store.StageOutput{},
		StartedAt: started.Add(-time.Minute),
	}
	require.NoError(t, s.Save(ctx, run0))

	list, err := s.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-0", list[0].ID)
	assert.Equal(t, "run-1", list[1].ID)

	require.NoError(t, s.Delete(ctx, "run-0"))
	_, err = s.Load(ctx, "run-0")
	assert.True(t, errors.Is(err, store.ErrRunNotFound))

	require.NoError(t, s.Clear(ctx, sessionID))
	list, err = s.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
