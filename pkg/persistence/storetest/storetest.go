// Package storetest provides a behavioural test suite shared by all
// persistence.StateStore implementations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewState builds a populated execution state for a session.
func NewState(t *testing.T, sessionID string, updatedAt time.Time) *models.ExecutionState {
	t.Helper()

	return &models.ExecutionState{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		PipelineID:   "convert",
		ActiveStepID: "convert_to_adms2",
		StepIndex:    1,
		Context: map[string]any{
			"target": "graphX",
			"count":  3,
			"nested": map[string]any{"key": "value"},
		},
		History: []models.StepRecord{
			{StepID: "pipeline_selection", Status: models.StepStatusConsumed, Timestamp: updatedAt},
		},
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

// Run exercises the StateStore contract against the store returned by newStore.
// Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) persistence.StateStore) {
	t.Helper()

	ctx := context.Background()

	t.Run("empty session is not persisted", func(t *testing.T) {
		store := newStore(t)

		persisted, err := store.IsPersisted(ctx, "session-empty")
		require.NoError(t, err)
		assert.False(t, persisted)

		_, err = store.GetState(ctx, "session-empty")
		require.Error(t, err)
		assert.True(t, persistence.IsNoActiveExecution(err))
	})

	t.Run("set then get round trips the state", func(t *testing.T) {
		store := newStore(t)
		now := time.Now().UTC().Truncate(time.Millisecond)
		state := NewState(t, "session-a", now)

		require.NoError(t, store.SetState(ctx, "session-a", state))

		persisted, err := store.IsPersisted(ctx, "session-a")
		require.NoError(t, err)
		assert.True(t, persisted)

		got, err := store.GetState(ctx, "session-a")
		require.NoError(t, err)
		assert.Equal(t, state.ID, got.ID)
		assert.Equal(t, "convert", got.PipelineID)
		assert.Equal(t, "convert_to_adms2", got.ActiveStepID)
		assert.Equal(t, 1, got.StepIndex)
		assert.Equal(t, "graphX", got.Context["target"])
		assert.InDelta(t, 3, got.Context["count"], 0) // JSON numbers decode as float64
		assert.Equal(t, "value", got.Context["nested"].(map[string]any)["key"])
		require.Len(t, got.History, 1)
		assert.Equal(t, models.StepStatusConsumed, got.History[0].Status)
		assert.True(t, now.Equal(got.UpdatedAt))
	})

	t.Run("set overwrites the previous state", func(t *testing.T) {
		store := newStore(t)
		now := time.Now().UTC()

		first := NewState(t, "session-b", now)
		require.NoError(t, store.SetState(ctx, "session-b", first))

		second := NewState(t, "session-b", now)
		second.ActiveStepID = "attach_provenance"
		second.StepIndex = 2
		require.NoError(t, store.SetState(ctx, "session-b", second))

		got, err := store.GetState(ctx, "session-b")
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)
		assert.Equal(t, "attach_provenance", got.ActiveStepID)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		store := newStore(t)
		now := time.Now().UTC()

		require.NoError(t, store.SetState(ctx, "session-c", NewState(t, "session-c", now)))

		persisted, err := store.IsPersisted(ctx, "session-d")
		require.NoError(t, err)
		assert.False(t, persisted)

		require.NoError(t, store.Reset(ctx, "session-d"))

		persisted, err = store.IsPersisted(ctx, "session-c")
		require.NoError(t, err)
		assert.True(t, persisted)
	})

	t.Run("reset deletes and is idempotent", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.SetState(ctx, "session-e", NewState(t, "session-e", time.Now().UTC())))
		require.NoError(t, store.Reset(ctx, "session-e"))
		require.NoError(t, store.Reset(ctx, "session-e"))

		persisted, err := store.IsPersisted(ctx, "session-e")
		require.NoError(t, err)
		assert.False(t, persisted)
	})

	t.Run("purge removes only stale states", func(t *testing.T) {
		store := newStore(t)
		now := time.Now().UTC()

		require.NoError(t, store.SetState(ctx, "session-old", NewState(t, "session-old", now.Add(-2*time.Hour))))
		require.NoError(t, store.SetState(ctx, "session-new", NewState(t, "session-new", now)))

		purged, err := store.PurgeBefore(ctx, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, purged)

		persisted, err := store.IsPersisted(ctx, "session-old")
		require.NoError(t, err)
		assert.False(t, persisted)

		persisted, err = store.IsPersisted(ctx, "session-new")
		require.NoError(t, err)
		assert.True(t, persisted)
	})

	t.Run("health check passes", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.HealthCheck(ctx))
	})
}
