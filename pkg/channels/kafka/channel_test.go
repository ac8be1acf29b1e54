package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"single", "localhost:9092", []string{"localhost:9092"}},
		{"multiple with blanks", " a:9092, ,b:9092 ,", []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseBrokers(tt.in))
		})
	}
}

func TestCreateChannel_NoBrokers(t *testing.T) {
	t.Parallel()

	pub, sub, err := CreateChannel(watermill.NopLogger{}, nil, "pipeflow")
	require.ErrorIs(t, err, ErrNoBrokers)
	assert.Nil(t, pub)
	assert.Nil(t, sub)
}
