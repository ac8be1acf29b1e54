package predicates

import (
	"context"
	"testing"

	"github.com/dukex/pipeflow/pkg/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{LegacyNamespace + "status", Namespace + "status"},
		{LegacyNamespace + "sw/release", Namespace + "includedAsset"},
		{LegacyNamespace + "interoperability", Namespace + "representationTechnique"},
		{"http://purl.org/dc/terms/title", "http://purl.org/dc/terms/title"},
		{Namespace + "status", Namespace + "status"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Rename(tt.in), tt.in)
	}
}

func TestPass_Apply(t *testing.T) {
	t.Parallel()

	data := map[string]any{}
	rdf.ToContext(data, []rdf.Triple{
		{Subject: "http://s", Predicate: LegacyNamespace + "status", Object: "http://completed"},
		{Subject: "http://s", Predicate: "http://purl.org/dc/terms/title", Object: `"t"`},
	})

	pass := NewPass()
	assert.Equal(t, PassID, pass.ID())

	require.NoError(t, pass.Apply(context.Background(), data))
	first, _, err := rdf.FromContext(data)
	require.NoError(t, err)

	require.NoError(t, pass.Apply(context.Background(), data))
	second, _, err := rdf.FromContext(data)
	require.NoError(t, err)

	assert.Equal(t, Namespace+"status", first[0].Predicate)
	assert.Equal(t, "http://purl.org/dc/terms/title", first[1].Predicate)
	assert.Equal(t, first, second)
}

func TestPass_NoTriples(t *testing.T) {
	t.Parallel()

	data := map[string]any{"target": "graphX"}
	require.NoError(t, NewPass().Apply(context.Background(), data))
	assert.Equal(t, map[string]any{"target": "graphX"}, data)
}

func TestPass_InvalidTriples(t *testing.T) {
	t.Parallel()

	err := NewPass().Apply(context.Background(), map[string]any{rdf.ContextKey: 42})
	require.ErrorIs(t, err, rdf.ErrInvalidTriples)
}
