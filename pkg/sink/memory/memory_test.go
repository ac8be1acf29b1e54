package memory

import (
	"context"
	"testing"

	"github.com/dukex/pipeflow/pkg/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSink()

	_, err := s.Get(ctx, "graph:x")
	require.ErrorIs(t, err, sink.ErrNotFound)

	value := []byte("payload")
	require.NoError(t, s.Put(ctx, "graph:x", value))
	value[0] = 'X'

	got, err := s.Get(ctx, "graph:x")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	require.NoError(t, s.Put(ctx, "graph:x", []byte("second")))
	got, err = s.Get(ctx, "graph:x")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}
