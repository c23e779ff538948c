package tracker

import (
	"errors"
	"fmt"

	"github.com/simmons/punch/engine"
	"github.com/simmons/punch/engine/store"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a user or project does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnexpectedPunch is returned when a punch does not match the
	// direction the event log expects next.
	ErrUnexpectedPunch = errors.New("unexpected punch direction")

	// ErrAlreadyInitialized is returned by Setup on an installation that
	// already has a user.
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrDuplicateEvent is shared with the in-memory store.
	ErrDuplicateEvent = store.ErrDuplicateEvent

	// ErrInvalidInput is returned for empty names, notes and the like.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServerConfiguration marks an engine configuration error that came
	// from server options or a stored project rather than from the caller.
	ErrServerConfiguration = errors.New("server configuration")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// UnexpectedPunchError records what the log expected instead.
type UnexpectedPunchError struct {
	Expected engine.Direction
	Got      engine.Direction
}

func (e *UnexpectedPunchError) Error() string {
	return fmt.Sprintf("%s: expected punch %s, got %s", ErrUnexpectedPunch, e.Expected, e.Got)
}

func (e *UnexpectedPunchError) Unwrap() error {
	return ErrUnexpectedPunch
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
// Configuration errors count only when the caller supplied the value.
func IsClientError(err error) bool {
	if errors.Is(err, ErrServerConfiguration) {
		return false
	}
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, engine.ErrConfiguration)
}

// IsConflict returns true if the request clashes with the current state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrUnexpectedPunch) ||
		errors.Is(err, ErrAlreadyInitialized) ||
		errors.Is(err, ErrDuplicateEvent)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
