// Package memory provides an in-process state store, used by tests and
// single-process deployments.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/persistence"
)

// StateStore keeps execution states in a map. States are stored as JSON so
// callers never share maps with the store, the same way durable stores behave.
type StateStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewStateStore creates an empty in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string][]byte),
	}
}

var _ persistence.StateStore = (*StateStore)(nil)

func (s *StateStore) IsPersisted(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.states[sessionID]

	return ok, nil
}

func (s *StateStore) GetState(_ context.Context, sessionID string) (*models.ExecutionState, error) {
	s.mu.RLock()
	data, ok := s.states[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, persistence.NewStateError("GetState", sessionID, persistence.ErrNoActiveExecution)
	}

	var state models.ExecutionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution state for session %s: %w", sessionID, err)
	}

	return &state, nil
}

func (s *StateStore) SetState(_ context.Context, sessionID string, state *models.ExecutionState) error {
	if err := persistence.ValidateSessionID(sessionID); err != nil {
		return persistence.NewStateError("SetState", sessionID, err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal execution state for session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	s.states[sessionID] = data
	s.mu.Unlock()

	return nil
}

func (s *StateStore) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()

	return nil
}

func (s *StateStore) PurgeBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0

	for sessionID, data := range s.states {
		var state models.ExecutionState
		if err := json.Unmarshal(data, &state); err != nil {
			continue
		}

		if state.UpdatedAt.Before(cutoff) {
			delete(s.states, sessionID)
			purged++
		}
	}

	return purged, nil
}

func (s *StateStore) HealthCheck(_ context.Context) error {
	return nil
}

func (s *StateStore) Close(_ context.Context) error {
	return nil
}
