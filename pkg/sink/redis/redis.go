// Package redis provides a Redis-backed data sink.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/sink"
	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "pipeflow:sink:"

type Sink struct {
	client goredis.UniversalClient
	prefix string
}

var _ protocol.DataSink = (*Sink)(nil)

// NewSink stores values under prefix+key. An empty prefix uses "pipeflow:sink:".
func NewSink(client goredis.UniversalClient, prefix string) *Sink {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Sink{client: client, prefix: prefix}
}

// NewSinkFromURL parses a redis:// URL, connects and pings the server.
func NewSinkFromURL(ctx context.Context, url string) (*Sink, error) {
	options, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewSink(client, ""), nil
}

func (s *Sink) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *Sink) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: %s", sink.ErrNotFound, key)
	}

	if err != nil {
		return nil, err
	}

	return value, nil
}

func (s *Sink) Close() error {
	return s.client.Close()
}
