/*
Package tracker is the punch application layer on top of the report engine.

PURPOSE:
  engine knows nothing about users, projects or storage. tracker loads a
  project's settings (overhead, time zone), fetches the right slice of its
  event log, runs the engine and records new punches, enforcing that a punch
  matches the direction the log expects next.

KEY TYPES:
  - User, Project: the singleton owner and project of an installation
  - Store: persistence needed by the service (store/sqlite implements it)
  - Service: Summary, Punch, Note, Setup, SeedTestData

SEE ALSO:
  - engine/engine.go: Generate
  - store/sqlite/sqlite.go: Store implementation
*/
package tracker

import (
	"context"
	"time"

	"github.com/simmons/punch/engine"
)

// =============================================================================
// MODEL
// =============================================================================

type UserID string

type User struct {
	ID        UserID
	Name      string
	Admin     bool
	CreatedAt time.Time
}

// Project owns an event log. Overhead and TimeZone drive its reports.
type Project struct {
	ID        engine.ProjectID
	UserID    UserID
	Name      string
	Overhead  time.Duration
	TimeZone  string
	CreatedAt time.Time
}

// InstallConfig is the per-installation row created by Setup.
type InstallConfig struct {
	Secret    []byte
	CreatedAt time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store is everything the service persists.
type Store interface {
	engine.EventStore

	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, projectID engine.ProjectID, limit int) ([]engine.PunchEvent, error)

	// RecordEvents appends several events atomically.
	RecordEvents(ctx context.Context, evs []engine.PunchEvent) error

	GetProject(ctx context.Context, id engine.ProjectID) (*Project, error)
	ProjectForUser(ctx context.Context, userID UserID) (*Project, error)
	SingletonUser(ctx context.Context) (*User, error)
	CountUsers(ctx context.Context) (int, error)
	Config(ctx context.Context) (*InstallConfig, error)

	// Initialize creates the install config, user and project atomically.
	Initialize(ctx context.Context, cfg InstallConfig, user User, project Project) error
}
