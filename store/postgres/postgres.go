// Package postgres provides a RunStore backed by PostgreSQL, for
// deployments where multiple server instances share run history.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/research-assistant/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresRunStore implements store.RunStore using PostgreSQL
type PostgresRunStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "runs"
}

// NewPostgresRunStore creates a new Postgres run store
func NewPostgresRunStore(ctx context.Context, opts PostgresOptions) (*PostgresRunStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "runs"
	}

	return &PostgresRunStore{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// NewPostgresRunStoreWithPool creates a new Postgres run store with an existing pool
// Useful for testing with mocks
func NewPostgresRunStoreWithPool(pool DBPool, tableName string) *PostgresRunStore {
	if tableName == "" {
		tableName = "runs"
	}
	return &PostgresRunStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresRunStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			app_name TEXT NOT NULL,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			input TEXT NOT NULL,
			outputs JSONB NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_session_id ON %s (session_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresRunStore) Close() {
	s.pool.Close()
}

// Save stores a run
func (s *PostgresRunStore) Save(ctx context.Context, run *store.Run) error {
	outputsJSON, err := json.Marshal(run.Outputs)
	if err != nil {
		return fmt.Errorf("failed to marshal outputs: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, app_name, user_id, session_id, input, outputs, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			app_name = EXCLUDED.app_name,
			user_id = EXCLUDED.user_id,
			session_id = EXCLUDED.session_id,
			input = EXCLUDED.input,
			outputs = EXCLUDED.outputs,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		run.ID,
		run.AppName,
		run.UserID,
		run.SessionID,
		run.Input,
		outputsJSON,
		run.StartedAt,
		run.FinishedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// Load retrieves a run by ID
func (s *PostgresRunStore) Load(ctx context.Context, runID string) (*store.Run, error) {
	query := fmt.Sprintf(`
		SELECT id, app_name, user_id, session_id, input, outputs, started_at, finished_at
		FROM %s
		WHERE id = $1
	`, s.tableName)

	var run store.Run
	var outputsJSON []byte

	err := s.pool.QueryRow(ctx, query, runID).Scan(
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
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	if err := json.Unmarshal(outputsJSON, &run.Outputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outputs: %w", err)
	}

	return &run, nil
}

// ListBySession returns all runs for a given session, oldest first
func (s *PostgresRunStore) ListBySession(ctx context.Context, sessionID string) ([]*store.Run, error) {
	query := fmt.Sprintf(`
		SELECT id, app_name, user_id, session_id, input, outputs, started_at, finished_at
		FROM %s
		WHERE session_id = $1
		ORDER BY started_at ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*store.Run
	for rows.Next() {
		var run store.Run
		var outputsJSON []byte

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

		if err := json.Unmarshal(outputsJSON, &run.Outputs); err != nil {
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
func (s *PostgresRunStore) Delete(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	_, err := s.pool.Exec(ctx, query, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// Clear removes all runs for a session
func (s *PostgresRunStore) Clear(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE session_id = $1", s.tableName)
	_, err := s.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}
	return nil
}
