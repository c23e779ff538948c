/*
service.go - Punch application service

PURPOSE:
  Wires a Store to the report engine. Every operation a user can perform
  (report, punch in/out, note, setup) goes through Service, whether it
  arrives over HTTP or the command line.

REPORT RANGE:
  A summary needs the events of every day and week it lists. The fetch
  starts at the earlier of the first day of the day window and the first
  day of the oldest week of the week window. If the last in/out before that
  instant is an In, it is prepended so a session that straddles the cut is
  counted from its real start instead of showing up as an orphan Out.

DIRECTION CHECK:
  Punch refuses a direction other than the one the log expects next. The
  check and the write happen under one mutex so two concurrent punches
  cannot both pass.

SEE ALSO:
  - engine/engine.go: Generate
  - seed.go: SeedTestData
*/
package tracker

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/simmons/punch/engine"
)

const (
	DefaultProjectName  = "Project"
	DefaultRecentEvents = 10

	secretSize = 32
)

// Options configures how the service builds reports.
type Options struct {
	WeekStart    time.Weekday
	DayWindow    int
	WeekWindow   int
	RecentEvents int

	// DefaultZone is used for projects without a time zone and for Setup
	// when none is given.
	DefaultZone string
}

func DefaultOptions() Options {
	return Options{
		WeekStart:    time.Monday,
		DayWindow:    engine.DefaultDayWindow,
		WeekWindow:   engine.DefaultWeekWindow,
		RecentEvents: DefaultRecentEvents,
		DefaultZone:  "Local",
	}
}

// Summary is a project's report plus what a user needs to act on it.
type Summary struct {
	Project      Project
	Location     *time.Location
	GeneratedAt  time.Time
	Report       engine.Report
	Anomalies    []engine.Anomaly
	RecentEvents []engine.PunchEvent
}

// Service implements the punch operations on top of a Store.
type Service struct {
	store  Store
	opts   Options
	tracer trace.Tracer
	mu     sync.Mutex
}

func NewService(store Store, opts Options) *Service {
	return &Service{
		store:  store,
		opts:   opts,
		tracer: otel.Tracer("github.com/simmons/punch/tracker"),
	}
}

// Installation returns the install config written by Setup.
func (s *Service) Installation(ctx context.Context) (*InstallConfig, error) {
	return s.store.Config(ctx)
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// =============================================================================
// QUERIES
// =============================================================================

// DefaultProject returns the singleton user's project.
func (s *Service) DefaultProject(ctx context.Context) (*Project, error) {
	user, err := s.store.SingletonUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ProjectForUser(ctx, user.ID)
}

// Summary builds the day and week report of a project as of now.
func (s *Service) Summary(ctx context.Context, projectID engine.ProjectID, now time.Time) (summary *Summary, err error) {
	ctx, span := s.tracer.Start(ctx, "tracker.Summary",
		trace.WithAttributes(attribute.String("punch.project_id", string(projectID))))
	defer func() { endSpan(span, err) }()

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	opts, err := s.engineOptions(project, now)
	if err != nil {
		return nil, err
	}

	from := s.windowStart(now, opts)
	events, err := s.store.FetchEvents(ctx, projectID, engine.Range{From: from})
	if err != nil {
		return nil, engine.Unavailable("fetch events", err)
	}
	prev, err := s.store.LastEventBefore(ctx, projectID, from, engine.KindIn, engine.KindOut)
	if err != nil {
		return nil, engine.Unavailable("last event", err)
	}
	if prev != nil && prev.Kind == engine.KindIn {
		events = append([]engine.PunchEvent{*prev}, events...)
	}

	result, err := engine.Generate(events, opts)
	if err != nil {
		return nil, err
	}
	for _, a := range result.Anomalies {
		log.Printf("[Tracker] Unexpected event in project %s: %v", projectID, &a)
	}

	recent, err := s.store.RecentEvents(ctx, projectID, s.opts.RecentEvents)
	if err != nil {
		return nil, engine.Unavailable("recent events", err)
	}

	span.SetAttributes(
		attribute.Int("punch.events", len(events)),
		attribute.Int("punch.anomalies", len(result.Anomalies)),
	)

	return &Summary{
		Project:      *project,
		Location:     opts.Location,
		GeneratedAt:  now,
		Report:       result.Report,
		Anomalies:    result.Anomalies,
		RecentEvents: recent,
	}, nil
}

// NextDirection returns the punch the log expects at the given instant.
func (s *Service) NextDirection(ctx context.Context, projectID engine.ProjectID, at time.Time) (engine.Direction, error) {
	last, err := s.store.LastEventBefore(ctx, projectID, at.Add(time.Nanosecond), engine.KindIn, engine.KindOut)
	if err != nil {
		return "", engine.Unavailable("last event", err)
	}
	if last != nil && last.Kind == engine.KindIn {
		return engine.DirectionOut, nil
	}
	return engine.DirectionIn, nil
}

// RecentEvents returns up to limit events, newest first. A non-positive
// limit uses the configured default.
func (s *Service) RecentEvents(ctx context.Context, projectID engine.ProjectID, limit int) ([]engine.PunchEvent, error) {
	if limit <= 0 {
		limit = s.opts.RecentEvents
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.RecentEvents(ctx, projectID, limit)
}

// =============================================================================
// COMMANDS
// =============================================================================

// Punch records an In or Out at the given instant. It fails with an
// *UnexpectedPunchError when the log expects the other direction.
func (s *Service) Punch(ctx context.Context, projectID engine.ProjectID, dir engine.Direction, at time.Time) (ev engine.PunchEvent, err error) {
	ctx, span := s.tracer.Start(ctx, "tracker.Punch",
		trace.WithAttributes(
			attribute.String("punch.project_id", string(projectID)),
			attribute.String("punch.direction", string(dir)),
		))
	defer func() { endSpan(span, err) }()

	if dir != engine.DirectionIn && dir != engine.DirectionOut {
		return engine.PunchEvent{}, fmt.Errorf("%w: direction %q", ErrInvalidInput, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return engine.PunchEvent{}, err
	}
	expected, err := s.NextDirection(ctx, projectID, at)
	if err != nil {
		return engine.PunchEvent{}, err
	}
	if dir != expected {
		return engine.PunchEvent{}, &UnexpectedPunchError{Expected: expected, Got: dir}
	}

	ev = engine.PunchEvent{
		ID:        engine.EventID(uuid.NewString()),
		ProjectID: projectID,
		Kind:      dir.Kind(),
		At:        at.UTC(),
	}
	if err := s.store.RecordEvent(ctx, ev); err != nil {
		return engine.PunchEvent{}, err
	}

	log.Printf("[Tracker] Punched %s at %s", dir, ev.At.Format(time.RFC3339))
	return ev, nil
}

// Note records a timestamped note without punching.
func (s *Service) Note(ctx context.Context, projectID engine.ProjectID, text string, at time.Time) (engine.PunchEvent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return engine.PunchEvent{}, fmt.Errorf("%w: note text is empty", ErrInvalidInput)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return engine.PunchEvent{}, err
	}

	ev := engine.PunchEvent{
		ID:        engine.EventID(uuid.NewString()),
		ProjectID: projectID,
		Kind:      engine.KindNote,
		At:        at.UTC(),
		Note:      text,
	}
	if err := s.store.RecordEvent(ctx, ev); err != nil {
		return engine.PunchEvent{}, err
	}
	return ev, nil
}

// SetupParams describes a new installation.
type SetupParams struct {
	Username    string
	ProjectName string
	Overhead    time.Duration
	TimeZone    string
	Now         time.Time
}

// Setup creates the install config, the singleton admin user and its
// project. It fails with ErrAlreadyInitialized if a user exists.
func (s *Service) Setup(ctx context.Context, p SetupParams) (*User, *Project, error) {
	p.Username = strings.TrimSpace(p.Username)
	if p.Username == "" {
		return nil, nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if p.ProjectName == "" {
		p.ProjectName = DefaultProjectName
	}
	if p.TimeZone == "" {
		p.TimeZone = s.opts.DefaultZone
	}
	if p.Overhead < 0 {
		return nil, nil, &engine.ConfigurationError{Field: "overhead", Value: p.Overhead, Reason: "must not be negative"}
	}
	if p.Overhead%time.Minute != 0 {
		return nil, nil, &engine.ConfigurationError{Field: "overhead", Value: p.Overhead, Reason: "must be whole minutes"}
	}
	if _, err := engine.LoadZone(p.TimeZone); err != nil {
		return nil, nil, err
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}

	// Initialize repeats this check inside its transaction.
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, nil, err
	}
	if users > 0 {
		return nil, nil, ErrAlreadyInitialized
	}

	secret := make([]byte, secretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, nil, fmt.Errorf("generate secret: %w", err)
	}

	user := User{
		ID:        UserID(uuid.NewString()),
		Name:      p.Username,
		Admin:     true,
		CreatedAt: p.Now.UTC(),
	}
	project := Project{
		ID:        engine.ProjectID(uuid.NewString()),
		UserID:    user.ID,
		Name:      p.ProjectName,
		Overhead:  p.Overhead,
		TimeZone:  p.TimeZone,
		CreatedAt: p.Now.UTC(),
	}
	cfg := InstallConfig{Secret: secret, CreatedAt: p.Now.UTC()}

	if err := s.store.Initialize(ctx, cfg, user, project); err != nil {
		return nil, nil, err
	}

	log.Printf("[Tracker] Initialized user %q with project %q", user.Name, project.Name)
	return &user, &project, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Location resolves the project's reporting zone. A zone that no longer
// resolves is a server-side problem, not a bad request.
func (s *Service) Location(project *Project) (*time.Location, error) {
	zone := project.TimeZone
	if zone == "" {
		zone = s.opts.DefaultZone
	}
	loc, err := engine.LoadZone(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: project %s: %w", ErrServerConfiguration, project.ID, err)
	}
	return loc, nil
}

func (s *Service) engineOptions(project *Project, now time.Time) (engine.Options, error) {
	loc, err := s.Location(project)
	if err != nil {
		return engine.Options{}, err
	}

	opts := engine.Options{
		Overhead:        project.Overhead,
		Location:        loc,
		WeekStart:       s.opts.WeekStart,
		DayWindow:       s.opts.DayWindow,
		WeekWindow:      s.opts.WeekWindow,
		Now:             now,
		MaterializeOpen: true,
		FillEmpty:       true,
	}
	if err := opts.Validate(); err != nil {
		return engine.Options{}, fmt.Errorf("%w: %w", ErrServerConfiguration, err)
	}
	return opts, nil
}

// windowStart is the first instant whose events can land in a listed bucket.
func (s *Service) windowStart(now time.Time, opts engine.Options) time.Time {
	today := engine.DayOf(now, opts.Location)
	first := today.AddDays(-(opts.DayWindow - 1))
	oldestWeek := engine.WeekOfDay(today, opts.WeekStart).AddDays(-7 * (opts.WeekWindow - 1))
	if oldestWeek.Before(first) {
		first = oldestWeek
	}
	return first.Start(opts.Location)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
