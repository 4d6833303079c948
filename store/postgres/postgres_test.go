package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"

	"github.com/smallnest/research-assistant/store"
)

func sampleOutputs() []store.StageOutput {
	return []store.StageOutput{
		{Stage: "researcher", OutputKey: "research_findings", Content: "findings"},
		{Stage: "writer", OutputKey: "draft_report", Content: "# Report"},
		{Stage: "reviewer", OutputKey: "review_result", Content: "APPROVED"},
	}
}

func TestPostgresRunStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")

	run := &store.Run{
		ID:         "run-1",
		AppName:    "research_app",
		UserID:     "alice",
		SessionID:  "sess-1",
		Input:      "quantum computing",
		Outputs:    sampleOutputs(),
		StartedAt:  time.Now(),
		FinishedAt: time.Now().Add(time.Second),
	}

	outputsJSON, _ := json.Marshal(run.Outputs)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO runs")).
		WithArgs(
			run.ID,
			run.AppName,
			run.UserID,
			run.SessionID,
			run.Input,
			outputsJSON,
			run.StartedAt,
			run.FinishedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = s.Save(context.Background(), run)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")

	runID := "run-1"
	started := time.Now()
	outputsJSON, _ := json.Marshal(sampleOutputs())

	rows := pgxmock.NewRows([]string{"id", "app_name", "user_id", "session_id", "input", "outputs", "started_at", "finished_at"}).
		AddRow(runID, "research_app", "alice", "sess-1", "quantum computing", outputsJSON, started, started.Add(time.Second))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, app_name, user_id, session_id, input, outputs, started_at, finished_at FROM runs WHERE id = $1")).
		WithArgs(runID).
		WillReturnRows(rows)

	loaded, err := s.Load(context.Background(), runID)
	assert.NoError(t, err)
	assert.Equal(t, runID, loaded.ID)
	assert.Equal(t, "quantum computing", loaded.Input)
	assert.Len(t, loaded.Outputs, 3)
	assert.Equal(t, "draft_report", loaded.Outputs[1].OutputKey)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStore_Load_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, app_name, user_id, session_id, input, outputs, started_at, finished_at FROM runs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = s.Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, store.ErrRunNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStore_ListBySession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")

	started := time.Now()
	outputsJSON, _ := json.Marshal(sampleOutputs())

	rows := pgxmock.NewRows([]string{"id", "app_name", "user_id", "session_id", "input", "outputs", "started_at", "finished_at"}).
		AddRow("run-1", "research_app", "alice", "sess-1", "topic a", outputsJSON, started, started.Add(time.Second)).
		AddRow("run-2", "research_app", "alice", "sess-1", "topic b", outputsJSON, started.Add(time.Minute), started.Add(2*time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, app_name, user_id, session_id, input, outputs, started_at, finished_at FROM runs WHERE session_id = $1 ORDER BY started_at ASC")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	runs, err := s.ListBySession(context.Background(), "sess-1")
	assert.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "topic b", runs[1].Input)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStore_DeleteAndClear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, s.Delete(context.Background(), "run-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM runs WHERE session_id = $1")).
		WithArgs("sess-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	assert.NoError(t, s.Clear(context.Background(), "sess-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	s := NewPostgresRunStoreWithPool(mock, "runs")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS runs").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
