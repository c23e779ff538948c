/*
store.go - Event store contract

PURPOSE:
  The engine reads punch events through EventFetcher and nothing else. The
  wider EventStore adds what the tracker service needs to record punches.

APPEND-ONLY CONTRACT:
  Events are never updated or deleted. A wrong punch is corrected by a new
  punch, which the pairer reports as an anomaly if it breaks the in/out
  alternation.

ORDERING:
  FetchEvents returns events ascending by timestamp; equal timestamps keep
  insertion order.

ERRORS:
  Implementations return failures wrapped with Unavailable() so callers can
  test errors.Is(err, ErrStoreUnavailable).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - engine/store/memory.go: in-memory, for tests
*/
package engine

import (
	"context"
	"time"
)

// EventFetcher supplies ordered events for a project.
type EventFetcher interface {
	FetchEvents(ctx context.Context, projectID ProjectID, r Range) ([]PunchEvent, error)
}

// EventStore is the full event log of a project.
type EventStore interface {
	EventFetcher

	// LastEventBefore returns the most recent event strictly before t whose
	// kind is one of kinds (any kind if none given), or nil.
	LastEventBefore(ctx context.Context, projectID ProjectID, t time.Time, kinds ...Kind) (*PunchEvent, error)

	// RecordEvent appends an event. This is the only write operation.
	RecordEvent(ctx context.Context, ev PunchEvent) error
}
