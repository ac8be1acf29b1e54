// Package file provides file-based persistence for pipeline execution state.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/persistence"
)

const statesDir = "execution_states"

var ErrRootNotDirectory = errors.New("state root is not a directory")

// StateStore implements persistence.StateStore with one JSON file per session.
type StateStore struct {
	root string // File system root for storing execution states
}

// NewStateStore creates a file state store rooted at root. A "file://" prefix is accepted.
func NewStateStore(root string) *StateStore {
	return &StateStore{root: strings.Replace(root, "file://", "", 1)}
}

var _ persistence.StateStore = (*StateStore)(nil)

func (fs *StateStore) path(sessionID string) string {
	return filepath.Join(fs.root, statesDir, sessionID+".json")
}

// IsPersisted reports whether a state file exists for the session.
func (fs *StateStore) IsPersisted(_ context.Context, sessionID string) (bool, error) {
	if err := persistence.ValidateSessionID(sessionID); err != nil {
		return false, persistence.NewStateError("IsPersisted", sessionID, err)
	}

	_, err := os.Stat(fs.path(sessionID))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("failed to stat execution state for session %s: %w", sessionID, err)
}

// GetState reads the session's execution state from the file system.
func (fs *StateStore) GetState(_ context.Context, sessionID string) (*models.ExecutionState, error) {
	// Validate session ID to prevent path traversal
	if err := persistence.ValidateSessionID(sessionID); err != nil {
		return nil, persistence.NewStateError("GetState", sessionID, err)
	}

	data, err := os.ReadFile(fs.path(sessionID)) // #nosec G304 -- path is validated and constructed safely
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewStateError("GetState", sessionID, persistence.ErrNoActiveExecution)
		}

		return nil, fmt.Errorf("failed to read execution state for session %s: %w", sessionID, err)
	}

	var state models.ExecutionState

	err = json.Unmarshal(data, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution state for session %s: %w", sessionID, err)
	}

	return &state, nil
}

// SetState writes the session's execution state, replacing any previous one.
// The file is written to a temporary name and renamed so readers never see a
// partial record.
func (fs *StateStore) SetState(_ context.Context, sessionID string, state *models.ExecutionState) error {
	if err := persistence.ValidateSessionID(sessionID); err != nil {
		return persistence.NewStateError("SetState", sessionID, err)
	}

	dir := filepath.Join(fs.root, statesDir)

	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create execution states directory: %w", err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal execution state for session %s: %w", sessionID, err)
	}

	tmp, err := os.CreateTemp(dir, sessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for session %s: %w", sessionID, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to write execution state for session %s: %w", sessionID, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to close execution state for session %s: %w", sessionID, err)
	}

	if err := os.Rename(tmpName, fs.path(sessionID)); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to store execution state for session %s: %w", sessionID, err)
	}

	return nil
}

// Reset removes the session's state file. A missing file is not an error.
func (fs *StateStore) Reset(_ context.Context, sessionID string) error {
	if err := persistence.ValidateSessionID(sessionID); err != nil {
		return persistence.NewStateError("Reset", sessionID, err)
	}

	err := os.Remove(fs.path(sessionID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete execution state for session %s: %w", sessionID, err)
	}

	return nil
}

// PurgeBefore removes every state file whose state was last updated before cutoff.
func (fs *StateStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	dir := filepath.Join(fs.root, statesDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to read execution states directory: %w", err)
	}

	purged := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		sessionID := strings.TrimSuffix(entry.Name(), ".json")

		state, err := fs.GetState(ctx, sessionID)
		if err != nil {
			// Skip invalid files
			continue
		}

		if !state.UpdatedAt.Before(cutoff) {
			continue
		}

		if err := fs.Reset(ctx, sessionID); err != nil {
			return purged, err
		}

		purged++
	}

	return purged, nil
}

// HealthCheck checks that the root is usable. A missing root is healthy since
// the first SetState creates it.
func (fs *StateStore) HealthCheck(_ context.Context) error {
	info, err := os.Stat(fs.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat state root %s: %w", fs.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDirectory, fs.root)
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fs *StateStore) Close(_ context.Context) error {
	return nil
}
