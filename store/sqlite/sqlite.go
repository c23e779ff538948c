/*
Package sqlite provides a SQLite-backed implementation of the tracker store.

PURPOSE:
  Implements engine.EventStore and tracker.Store on SQLite. One database
  file holds one installation: a config row, a singleton user, its project
  and the project's event log.

INTERFACES IMPLEMENTED:
  engine.EventStore: FetchEvents, LastEventBefore, RecordEvent
  tracker.Store:     users, projects, install config, recent events

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the events table
  - No DELETE statements on the events table
  - A wrong punch is corrected by punching again

KEY TABLES:
  config:   One row. Install secret generated at setup.
  users:    Owner of the installation.
  projects: Overhead (whole minutes) and reporting time zone.
  events:   Immutable punch log. seq preserves insertion order.

CLOCK FORMAT:
  Event times are stored as fixed-width UTC text (clockLayout), so ORDER BY
  clock is chronological and range filters can compare strings.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are limited to
  one connection, since each connection would otherwise see its own empty
  database.

USAGE:
  store, err := sqlite.New("punch.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := tracker.NewService(store, tracker.DefaultOptions())

SEE ALSO:
  - engine/store.go: EventStore contract
  - tracker/types.go: Store contract
  - engine/store/memory.go: In-memory event store for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/simmons/punch/engine"
	"github.com/simmons/punch/tracker"
)

const clockLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements engine.EventStore and tracker.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath. Use ":memory:" for an
// in-memory database. A "sqlite://" or "sqlite:" prefix is accepted.
func New(dbPath string) (*Store, error) {
	dbPath = strings.TrimPrefix(dbPath, "sqlite://")
	dbPath = strings.TrimPrefix(dbPath, "sqlite:")

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, engine.Unavailable("open database", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, engine.Unavailable("migrate database", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return engine.Unavailable("ping", err)
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		secret BLOB NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		overhead_minutes INTEGER NOT NULL DEFAULT 15 CHECK (overhead_minutes >= 0),
		timezone TEXT NOT NULL DEFAULT 'Local',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_user
		ON projects(user_id);

	-- Events (append-only log)
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		project_id TEXT NOT NULL REFERENCES projects(id),
		event_type TEXT NOT NULL CHECK (event_type IN ('in', 'out', 'note')),
		clock TEXT NOT NULL,
		note TEXT
	);

	-- Report fetches and last-event lookups (hot path)
	CREATE INDEX IF NOT EXISTS idx_events_project_clock
		ON events(project_id, clock, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EVENT STORE (engine.EventStore interface)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RecordEvent appends a punch event.
func (s *Store) RecordEvent(ctx context.Context, ev engine.PunchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertEvent(ctx, s.db, ev)
}

// RecordEvents appends several events atomically.
func (s *Store) RecordEvents(ctx context.Context, evs []engine.PunchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[engine.EventID]bool, len(evs))
	for _, ev := range evs {
		if seen[ev.ID] {
			return tracker.ErrDuplicateEvent
		}
		seen[ev.ID] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.Unavailable("begin transaction", err)
	}
	defer tx.Rollback()

	for _, ev := range evs {
		if err := s.insertEvent(ctx, tx, ev); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return engine.Unavailable("commit events", err)
	}
	return nil
}

func (s *Store) insertEvent(ctx context.Context, db execer, ev engine.PunchEvent) error {
	if ev.ID == "" {
		return fmt.Errorf("%w: event id is required", tracker.ErrInvalidInput)
	}
	kind, err := engine.ParseKind(string(ev.Kind))
	if err != nil {
		return fmt.Errorf("%w: %v", tracker.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO events (id, project_id, event_type, clock, note)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		string(ev.ID),
		string(ev.ProjectID),
		string(kind),
		formatClock(ev.At),
		nullString(ev.Note),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return tracker.ErrDuplicateEvent
		}
		return engine.Unavailable("record event", err)
	}
	return nil
}

// FetchEvents returns the project's events in r, oldest first.
func (s *Store) FetchEvents(ctx context.Context, projectID engine.ProjectID, r engine.Range) ([]engine.PunchEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, project_id, event_type, clock, note
		FROM events
		WHERE project_id = ?`
	args := []any{string(projectID)}
	if !r.From.IsZero() {
		query += ` AND clock >= ?`
		args = append(args, formatClock(r.From))
	}
	if !r.To.IsZero() {
		query += ` AND clock < ?`
		args = append(args, formatClock(r.To))
	}
	query += ` ORDER BY clock ASC, seq ASC`

	return s.queryEvents(ctx, "fetch events", query, args...)
}

// LastEventBefore returns the most recent event strictly before t with one
// of kinds (any kind when none given), or nil.
func (s *Store) LastEventBefore(ctx context.Context, projectID engine.ProjectID, t time.Time, kinds ...engine.Kind) (*engine.PunchEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, project_id, event_type, clock, note
		FROM events
		WHERE project_id = ? AND clock < ?`
	args := []any{string(projectID), formatClock(t)}
	if len(kinds) > 0 {
		query += ` AND event_type IN (?` + strings.Repeat(`, ?`, len(kinds)-1) + `)`
		for _, k := range kinds {
			args = append(args, string(k))
		}
	}
	query += ` ORDER BY clock DESC, seq DESC LIMIT 1`

	evs, err := s.queryEvents(ctx, "last event", query, args...)
	if err != nil || len(evs) == 0 {
		return nil, err
	}
	return &evs[0], nil
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(ctx context.Context, projectID engine.ProjectID, limit int) ([]engine.PunchEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, project_id, event_type, clock, note
		FROM events
		WHERE project_id = ?
		ORDER BY clock DESC, seq DESC
		LIMIT ?
	`
	return s.queryEvents(ctx, "recent events", query, string(projectID), limit)
}

func (s *Store) queryEvents(ctx context.Context, op, query string, args ...any) ([]engine.PunchEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engine.Unavailable(op, err)
	}
	defer rows.Close()

	var result []engine.PunchEvent
	for rows.Next() {
		var (
			ev          engine.PunchEvent
			id, project string
			kind, clock string
			note        sql.NullString
		)
		if err := rows.Scan(&id, &project, &kind, &clock, &note); err != nil {
			return nil, engine.Unavailable(op, err)
		}
		at, err := parseClock(clock)
		if err != nil {
			return nil, engine.Unavailable(op, err)
		}
		ev.Kind, err = engine.ParseKind(kind)
		if err != nil {
			return nil, engine.Unavailable(op, err)
		}
		ev.ID = engine.EventID(id)
		ev.ProjectID = engine.ProjectID(project)
		ev.At = at
		ev.Note = note.String
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, engine.Unavailable(op, err)
	}
	return result, nil
}

// =============================================================================
// USERS AND PROJECTS (tracker.Store interface)
// =============================================================================

// Initialize writes the config row, the user and the project in one
// transaction. It fails with tracker.ErrAlreadyInitialized when a user
// already exists.
func (s *Store) Initialize(ctx context.Context, cfg tracker.InstallConfig, user tracker.User, project tracker.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.Unavailable("begin transaction", err)
	}
	defer tx.Rollback()

	var users int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		return engine.Unavailable("count users", err)
	}
	if users > 0 {
		return tracker.ErrAlreadyInitialized
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO config (id, secret, created_at) VALUES (1, ?, ?)`,
		cfg.Secret, formatClock(cfg.CreatedAt),
	); err != nil {
		return engine.Unavailable("save config", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, name, admin, created_at) VALUES (?, ?, ?, ?)`,
		string(user.ID), user.Name, user.Admin, formatClock(user.CreatedAt),
	); err != nil {
		return engine.Unavailable("save user", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projects (id, user_id, name, overhead_minutes, timezone, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(project.ID), string(project.UserID), project.Name,
		int64(project.Overhead/time.Minute), project.TimeZone, formatClock(project.CreatedAt),
	); err != nil {
		return engine.Unavailable("save project", err)
	}

	if err := tx.Commit(); err != nil {
		return engine.Unavailable("commit setup", err)
	}
	return nil
}

// Config returns the install config row.
func (s *Store) Config(ctx context.Context) (*tracker.InstallConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		cfg     tracker.InstallConfig
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT secret, created_at FROM config WHERE id = 1`,
	).Scan(&cfg.Secret, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config: %w", tracker.ErrNotFound)
	}
	if err != nil {
		return nil, engine.Unavailable("load config", err)
	}
	cfg.CreatedAt, _ = parseClock(created)
	return &cfg, nil
}

// CountUsers returns the number of users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, engine.Unavailable("count users", err)
	}
	return count, nil
}

// SingletonUser returns the installation's only user.
func (s *Store) SingletonUser(ctx context.Context) (*tracker.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u       tracker.User
		id      string
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, admin, created_at FROM users ORDER BY created_at ASC LIMIT 1`,
	).Scan(&id, &u.Name, &u.Admin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", tracker.ErrNotFound)
	}
	if err != nil {
		return nil, engine.Unavailable("load user", err)
	}
	u.ID = tracker.UserID(id)
	u.CreatedAt, _ = parseClock(created)
	return &u, nil
}

// GetProject returns a project by ID.
func (s *Store) GetProject(ctx context.Context, id engine.ProjectID) (*tracker.Project, error) {
	return s.loadProject(ctx, `WHERE id = ?`, string(id))
}

// ProjectForUser returns the user's first project.
func (s *Store) ProjectForUser(ctx context.Context, userID tracker.UserID) (*tracker.Project, error) {
	return s.loadProject(ctx, `WHERE user_id = ? ORDER BY created_at ASC LIMIT 1`, string(userID))
}

func (s *Store) loadProject(ctx context.Context, where string, args ...any) (*tracker.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p               tracker.Project
		id, user        string
		overheadMinutes int64
		created         string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, overhead_minutes, timezone, created_at FROM projects `+where,
		args...,
	).Scan(&id, &user, &p.Name, &overheadMinutes, &p.TimeZone, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project: %w", tracker.ErrNotFound)
	}
	if err != nil {
		return nil, engine.Unavailable("load project", err)
	}
	p.ID = engine.ProjectID(id)
	p.UserID = tracker.UserID(user)
	p.Overhead = time.Duration(overheadMinutes) * time.Minute
	p.CreatedAt, _ = parseClock(created)
	return &p, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatClock(t time.Time) string {
	return t.UTC().Format(clockLayout)
}

func parseClock(s string) (time.Time, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad clock value %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
