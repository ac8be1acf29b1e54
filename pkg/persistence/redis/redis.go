// Package redis provides Redis persistence for pipeline execution state.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "pipeflow"

// StateStore keeps each session's state as a JSON string and indexes sessions
// in a sorted set scored by last update, so stale states can be purged.
type StateStore struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ persistence.StateStore = (*StateStore)(nil)

// Option configures a StateStore.
type Option func(*StateStore)

// WithPrefix sets the key prefix. Defaults to "pipeflow".
func WithPrefix(prefix string) Option {
	return func(s *StateStore) {
		s.prefix = prefix
	}
}

// WithTTL lets Redis expire states that were not touched for ttl.
func WithTTL(ttl time.Duration) Option {
	return func(s *StateStore) {
		s.ttl = ttl
	}
}

// NewStateStore wraps an existing client.
func NewStateStore(client goredis.UniversalClient, opts ...Option) *StateStore {
	store := &StateStore{
		client: client,
		prefix: defaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// NewStateStoreFromURL parses a redis:// URL, connects and pings the server.
func NewStateStoreFromURL(ctx context.Context, url string, opts ...Option) (*StateStore, error) {
	options, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewStateStore(client, opts...), nil
}

func (s *StateStore) stateKey(sessionID string) string {
	return s.prefix + ":state:" + sessionID
}

func (s *StateStore) indexKey() string {
	return s.prefix + ":states"
}

func (s *StateStore) IsPersisted(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.stateKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check execution state for session %s: %w", sessionID, err)
	}

	return n > 0, nil
}

func (s *StateStore) GetState(ctx context.Context, sessionID string) (*models.ExecutionState, error) {
	data, err := s.client.Get(ctx, s.stateKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewStateError("GetState", sessionID, persistence.ErrNoActiveExecution)
		}

		return nil, fmt.Errorf("failed to read execution state for session %s: %w", sessionID, err)
	}

	var state models.ExecutionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution state for session %s: %w", sessionID, err)
	}

	return &state, nil
}

func (s *StateStore) SetState(ctx context.Context, sessionID string, state *models.ExecutionState) error {
	if err := persistence.ValidateSessionID(sessionID); err != nil {
		return persistence.NewStateError("SetState", sessionID, err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal execution state for session %s: %w", sessionID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.stateKey(sessionID), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), goredis.Z{
			Score:  float64(state.UpdatedAt.UnixMilli()),
			Member: sessionID,
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store execution state for session %s: %w", sessionID, err)
	}

	return nil
}

func (s *StateStore) Reset(ctx context.Context, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.stateKey(sessionID))
		pipe.ZRem(ctx, s.indexKey(), sessionID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete execution state for session %s: %w", sessionID, err)
	}

	return nil
}

func (s *StateStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	sessions, err := s.client.ZRangeByScore(ctx, s.indexKey(), &goredis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list stale execution states: %w", err)
	}

	for i, sessionID := range sessions {
		if err := s.Reset(ctx, sessionID); err != nil {
			return i, err
		}
	}

	return len(sessions), nil
}

func (s *StateStore) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (s *StateStore) Close(_ context.Context) error {
	return s.client.Close()
}
