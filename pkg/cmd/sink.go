package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/sink/memory"
	"github.com/dukex/pipeflow/pkg/sink/redis"
)

var ErrUnsupportedSink = errors.New("unsupported data sink")

// NewSink returns the data sink for store_graph and a function releasing it.
func NewSink(ctx context.Context, sinkURL string) (protocol.DataSink, func() error, error) {
	noop := func() error { return nil }

	switch {
	case sinkURL == "" || sinkURL == "memory://":
		return memory.NewSink(), noop, nil
	case strings.HasPrefix(sinkURL, "redis://"), strings.HasPrefix(sinkURL, "rediss://"):
		sink, err := redis.NewSinkFromURL(ctx, sinkURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect data sink: %w", err)
		}

		return sink, sink.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %s", ErrUnsupportedSink, sinkURL)
	}
}
