package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/dukex/pipeflow/pkg/persistence/file"
	"github.com/dukex/pipeflow/pkg/persistence/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) persistence.StateStore {
		t.Helper()

		return file.NewStateStore(t.TempDir())
	})
}

func TestStateStore_FilePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	store := file.NewStateStore("file://" + root)

	require.NoError(t, store.SetState(ctx, "operator-1", storetest.NewState(t, "operator-1", time.Now().UTC())))

	_, err := os.Stat(filepath.Join(root, "execution_states", "operator-1.json"))
	assert.NoError(t, err)
}

func TestStateStore_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := file.NewStateStore(t.TempDir())

	err := store.SetState(ctx, "../escape", storetest.NewState(t, "../escape", time.Now().UTC()))
	require.ErrorIs(t, err, persistence.ErrInvalidSessionID)

	_, err = store.GetState(ctx, "../escape")
	require.ErrorIs(t, err, persistence.ErrInvalidSessionID)

	err = store.Reset(ctx, "a/b")
	require.ErrorIs(t, err, persistence.ErrInvalidSessionID)
}

func TestStateStore_PurgeSkipsCorruptFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	store := file.NewStateStore(root)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "execution_states"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "execution_states", "broken.json"), []byte("{"), 0600))

	purged, err := store.PurgeBefore(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, purged)
}

func TestStateStore_HealthCheckMissingRoot(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "missing")
	store := file.NewStateStore(root)
	require.NoError(t, store.HealthCheck(context.Background()))

	require.NoError(t, store.SetState(context.Background(), "s1", storetest.NewState(t, "s1", time.Now())))
	assert.DirExists(t, root)
	require.NoError(t, store.HealthCheck(context.Background()))
}

func TestStateStore_HealthCheckRootIsFile(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o600))

	store := file.NewStateStore(root)
	assert.ErrorIs(t, store.HealthCheck(context.Background()), file.ErrRootNotDirectory)
}
