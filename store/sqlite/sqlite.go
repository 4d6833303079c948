// Package sqlite provides a RunStore backed by SQLite, suitable for a
// single-node deployment that needs runs to survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/research-assistant/store"
)

// SqliteRunStore implements store.RunStore using SQLite
type SqliteRunStore struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "runs"
}

// NewSqliteRunStore creates a new SQLite run store
func NewSqliteRunStore(opts SqliteOptions) (*SqliteRunStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "runs"
	}

	s := &SqliteRunStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteRunStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			app_name TEXT NOT NULL,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			input TEXT NOT NULL,
			outputs TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_session_id ON %s (session_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteRunStore) Close() error {
	return s.db.Close()
}

// Save stores a run
func (s *SqliteRunStore) Save(ctx context.Context, run *store.Run) error {
	outputsJSON, err := json.Marshal(run.Outputs)
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, app_name, user_id, session_id, input, outputs, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			app_name = excluded.app_name,
			user_id = excluded.user_id,
			session_id = excluded.session_id,
			input = excluded.input,
			outputs = excluded.outputs,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.AppName,
		run.UserID,
		run.SessionID,
		run.Input,
		string(outputsJSON),
		run.StartedAt,
		run.FinishedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// Load retrieves a run by ID
func (s *SqliteRunStore) Load(ctx context.Context, runID string) (*store.Run, error) {
	query := fmt.Sprintf(`
		SELECT id, app_name, user_id, session_id, input, outputs, started_at, finished_at
		FROM %s
		WHERE id = ?
	`, s.tableName)

	var run store.Run
	var outputsJSON string

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.ID,
		&run.AppName,
		&run.UserID,
		&run.SessionID,
		&run.Input,
		&outputsJSON,
		&run.StartedAt,
		&run.FinishedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	if err := json.Unmarshal([]byte(outputsJSON), &run.Outputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outputs: %w", err)
	}

	return &run, nil
}

// ListBySession returns all runs for a given session, oldest first
func (s *SqliteRunStore) ListBySession(ctx context.Context, sessionID string) ([]*store.Run, error) {
	query := fmt.Sprintf(`
		SELECT id, app_name, user_id, session_id, input, outputs, started_at, finished_at
		FROM %s
		WHERE session_id = ?
		ORDER BY started_at ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*store.Run
	for rows.Next() {
		var run store.Run
		var outputsJSON string

		err := rows.Scan(
			&run.ID,
			&run.AppName,
			&run.UserID,
			&run.SessionID,
			&run.Input,
			&outputsJSON,
			&run.StartedAt,
			&run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		if err := json.Unmarshal([]byte(outputsJSON), &run.Outputs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outputs: %w", err)
		}

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

// Delete removes a run
func (s *SqliteRunStore) Delete(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	_, err := s.db.ExecContext(ctx, query, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// Clear removes all runs for a session
func (s *SqliteRunStore) Clear(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE session_id = ?", s.tableName)
	_, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}
	return nil
}
