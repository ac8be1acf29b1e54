// Package persistence provides the storage abstraction for pipeline execution state.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
)

// StateStore durably keeps at most one ExecutionState per session. Session
// isolation is the store's job; the orchestrator never locks.
type StateStore interface {
	// IsPersisted reports whether the session has an execution state.
	IsPersisted(ctx context.Context, sessionID string) (bool, error)

	// GetState returns the session's state or ErrNoActiveExecution.
	GetState(ctx context.Context, sessionID string) (*models.ExecutionState, error)

	// SetState overwrites the session's state.
	SetState(ctx context.Context, sessionID string, state *models.ExecutionState) error

	// Reset deletes the session's state. Resetting an empty session is a no-op.
	Reset(ctx context.Context, sessionID string) error

	// PurgeBefore deletes every state last updated before cutoff and returns
	// how many were removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
