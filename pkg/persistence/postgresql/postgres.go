// Package postgresql provides PostgreSQL persistence for pipeline execution state.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/dukex/pipeflow/pkg/persistence/sqlbase"
	_ "github.com/lib/pq" // registers the "postgres" driver
)

// StateStore implements persistence.StateStore on a PostgreSQL table.
type StateStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ persistence.StateStore = (*StateStore)(nil)

// NewStateStore connects to PostgreSQL and runs the schema migrations.
func NewStateStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*StateStore, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &StateStore{
		db:     database,
		logger: logger,
	}, nil
}

// IsPersisted reports whether the session has a row.
func (s *StateStore) IsPersisted(ctx context.Context, sessionID string) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM execution_states WHERE session_id = $1)",
		sessionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check execution state for session %s: %w", sessionID, err)
	}

	return exists, nil
}

// GetState loads the session's execution state.
func (s *StateStore) GetState(ctx context.Context, sessionID string) (*models.ExecutionState, error) {
	query := `
		SELECT id, session_id, pipeline_id, active_step_id, step_index,
			   context, history, created_at, updated_at
		FROM execution_states
		WHERE session_id = $1
	`

	var (
		state       models.ExecutionState
		contextJSON []byte
		historyJSON []byte
	)

	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&state.ID,
		&state.SessionID,
		&state.PipelineID,
		&state.ActiveStepID,
		&state.StepIndex,
		&contextJSON,
		&historyJSON,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStateError("GetState", sessionID, persistence.ErrNoActiveExecution)
		}

		return nil, fmt.Errorf("failed to scan execution state: %w", err)
	}

	err = json.Unmarshal(contextJSON, &state.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal context: %w", err)
	}

	err = json.Unmarshal(historyJSON, &state.History)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	return &state, nil
}

// SetState upserts the session's execution state.
func (s *StateStore) SetState(ctx context.Context, sessionID string, state *models.ExecutionState) error {
	if err := persistence.ValidateSessionID(sessionID); err != nil {
		return persistence.NewStateError("SetState", sessionID, err)
	}

	contextData := state.Context
	if contextData == nil {
		contextData = map[string]any{}
	}

	contextJSON, err := json.Marshal(contextData)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	history := state.History
	if history == nil {
		history = []models.StepRecord{}
	}

	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `
		INSERT INTO execution_states (
			session_id, id, pipeline_id, active_step_id, step_index,
			context, history, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE SET
			id = EXCLUDED.id,
			pipeline_id = EXCLUDED.pipeline_id,
			active_step_id = EXCLUDED.active_step_id,
			step_index = EXCLUDED.step_index,
			context = EXCLUDED.context,
			history = EXCLUDED.history,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		sessionID,
		state.ID,
		state.PipelineID,
		state.ActiveStepID,
		state.StepIndex,
		contextJSON,
		historyJSON,
		state.CreatedAt,
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution state: %w", err)
	}

	return nil
}

// Reset deletes the session's row.
func (s *StateStore) Reset(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM execution_states WHERE session_id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete execution state for session %s: %w", sessionID, err)
	}

	return nil
}

// PurgeBefore deletes rows not updated since cutoff.
func (s *StateStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM execution_states WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge execution states: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged execution states: %w", err)
	}

	return int(affected), nil
}

// HealthCheck verifies the database connection is healthy.
func (s *StateStore) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *StateStore) Close(_ context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
