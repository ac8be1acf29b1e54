package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/dukex/pipeflow/pkg/persistence/file"
	"github.com/dukex/pipeflow/pkg/persistence/memory"
	"github.com/dukex/pipeflow/pkg/persistence/postgresql"
	"github.com/dukex/pipeflow/pkg/persistence/redis"
)

var ErrUnsupportedStateStore = errors.New("unsupported state store")

// NewStateStore picks a store implementation from the URL scheme. A URL with
// no scheme is treated as a directory for the file store.
func NewStateStore(ctx context.Context, logger *slog.Logger, storeURL string) (persistence.StateStore, error) {
	provider, rest := parseStateStoreProvider(storeURL)

	switch provider {
	case "memory":
		return memory.NewStateStore(), nil
	case "file":
		if rest == "" {
			return nil, fmt.Errorf("%w: file store needs a directory", ErrUnsupportedStateStore)
		}

		return file.NewStateStore(rest), nil
	case "postgres", "postgresql":
		return postgresql.NewStateStore(ctx, logger, storeURL)
	case "redis", "rediss":
		return redis.NewStateStoreFromURL(ctx, storeURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStateStore, provider)
	}
}

func parseStateStoreProvider(storeURL string) (string, string) {
	if storeURL == "" {
		return "memory", ""
	}

	provider, rest, found := strings.Cut(storeURL, "://")
	if !found {
		return "file", storeURL
	}

	return provider, rest
}
