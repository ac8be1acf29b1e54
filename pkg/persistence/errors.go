// Package persistence provides standardized error types for state store operations.
package persistence

import (
	"errors"
	"fmt"
	"strings"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrNoActiveExecution indicates the session has no persisted execution state.
	ErrNoActiveExecution = errors.New("no active execution")

	// ErrInvalidSessionID indicates a session id that cannot be used as a storage key.
	ErrInvalidSessionID = errors.New("invalid session id")
)

// StateError wraps state store errors with additional context.
type StateError struct {
	Op        string // Operation being performed (e.g., "GetState", "SetState", "Reset")
	SessionID string // Session the state belongs to
	Err       error  // Underlying error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s operation failed for session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for state errors.
func (e *StateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStateError creates a new state error with context.
func NewStateError(op, sessionID string, err error) *StateError {
	return &StateError{
		Op:        op,
		SessionID: sessionID,
		Err:       err,
	}
}

// IsNoActiveExecution checks if an error indicates the session has no state.
func IsNoActiveExecution(err error) bool {
	return errors.Is(err, ErrNoActiveExecution)
}

// ValidateSessionID rejects empty ids and ids that are unsafe as file names or keys.
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session ID cannot be empty", ErrInvalidSessionID)
	}

	if len(sessionID) > 255 {
		return fmt.Errorf("%w: session ID is too long", ErrInvalidSessionID)
	}

	// Check for path traversal attempts
	if strings.Contains(sessionID, "..") || strings.ContainsAny(sessionID, "/\\:") {
		return fmt.Errorf("%w: session ID contains invalid characters", ErrInvalidSessionID)
	}

	return nil
}
