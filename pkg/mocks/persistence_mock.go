package mocks

import (
	"context"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockStateStore is a mock implementation of persistence.StateStore interface.
type MockStateStore struct {
	mock.Mock
}

var _ persistence.StateStore = (*MockStateStore)(nil)

func (m *MockStateStore) IsPersisted(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)

	return args.Bool(0), args.Error(1)
}

func (m *MockStateStore) GetState(ctx context.Context, sessionID string) (*models.ExecutionState, error) {
	args := m.Called(ctx, sessionID)

	state, _ := args.Get(0).(*models.ExecutionState)

	return state, args.Error(1)
}

func (m *MockStateStore) SetState(ctx context.Context, sessionID string, state *models.ExecutionState) error {
	args := m.Called(ctx, sessionID, state)

	return args.Error(0)
}

func (m *MockStateStore) Reset(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)

	return args.Error(0)
}

func (m *MockStateStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)

	return args.Int(0), args.Error(1)
}

func (m *MockStateStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockStateStore) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
