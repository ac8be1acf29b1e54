// Package memory provides an in-process data sink.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/sink"
)

type Sink struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ protocol.DataSink = (*Sink)(nil)

func NewSink() *Sink {
	return &Sink{values: make(map[string][]byte)}
}

func (s *Sink) Put(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = stored

	return nil
}

func (s *Sink) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sink.ErrNotFound, key)
	}

	out := make([]byte, len(value))
	copy(out, value)

	return out, nil
}
