/*
Package engine turns a punch event log into day and week work-time reports.

PURPOSE:
  This package contains the pure aggregation core of punch. It never touches
  storage: callers hand it an ordered slice of punch events and get back a
  Report plus the anomalies found while pairing events into sessions.

KEY CONCEPTS IN THIS FILE (types.go):
  - PunchEvent: an immutable In/Out/Note marker with a UTC timestamp
  - Session: one In paired with its Out (or left open)
  - WorkTime: gross and net duration of a session or bucket
  - Direction: the next punch a user is expected to make

PIPELINE:
  events -> Pair (pairer.go) -> Measure (duration.go)
         -> Buckets.Add (bucket.go) -> Assemble (report.go)

  Generate (engine.go) runs the whole pipeline in one call.

SEE ALSO:
  - calendar.go: time zone conversion and bucket keys
  - errors.go: StoreUnavailable / MalformedSession / Configuration errors
  - store.go: EventStore contract implemented by store/sqlite
*/
package engine

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EventID string
type ProjectID string

// =============================================================================
// EVENT KIND / DIRECTION
// =============================================================================

type Kind string

const (
	KindIn   Kind = "in"
	KindOut  Kind = "out"
	KindNote Kind = "note"
)

// ParseKind accepts "in", "out" or "note" in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindIn, KindOut, KindNote:
		return k, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", s)
	}
}

// Direction is the subset of Kind a user can punch: in or out.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// ParseDirection accepts "in" or "out" in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionIn, DirectionOut:
		return d, nil
	default:
		return "", fmt.Errorf("unknown punch direction %q", s)
	}
}

func (d Direction) Kind() Kind {
	if d == DirectionOut {
		return KindOut
	}
	return KindIn
}

// =============================================================================
// PUNCH EVENT
// =============================================================================

// PunchEvent is a single entry of the event log. At is always UTC; the local
// zone only matters when deriving bucket keys.
type PunchEvent struct {
	ID        EventID
	ProjectID ProjectID
	Kind      Kind
	At        time.Time
	Note      string
}

func (e PunchEvent) String() string {
	return fmt.Sprintf("%s@%s", e.Kind, e.At.UTC().Format(time.RFC3339))
}

// =============================================================================
// SESSION
// =============================================================================

// Session is an In event paired with the Out that closed it. End is nil for
// an open session. Abandoned marks a session that was left open by a second
// In; it is kept for reporting but never counted.
type Session struct {
	Start     PunchEvent
	End       *PunchEvent
	Abandoned bool
}

func (s Session) Open() bool { return s.End == nil }

// EndOr returns the Out timestamp, or now for an open session.
func (s Session) EndOr(now time.Time) time.Time {
	if s.End == nil {
		return now
	}
	return s.End.At
}

// =============================================================================
// WORK TIME
// =============================================================================

// WorkTime holds gross (elapsed) and net (gross minus overhead) time.
type WorkTime struct {
	Gross time.Duration
	Net   time.Duration
}

// NewWorkTime derives net from gross by subtracting overhead once, floored
// at zero.
func NewWorkTime(gross, overhead time.Duration) WorkTime {
	net := gross - overhead
	if net < 0 {
		net = 0
	}
	return WorkTime{Gross: gross, Net: net}
}

func (w WorkTime) Add(o WorkTime) WorkTime {
	return WorkTime{Gross: w.Gross + o.Gross, Net: w.Net + o.Net}
}

func (w WorkTime) Sub(o WorkTime) WorkTime {
	return WorkTime{Gross: w.Gross - o.Gross, Net: w.Net - o.Net}
}

func (w WorkTime) IsZero() bool { return w.Gross == 0 && w.Net == 0 }

// FormatElapsed renders a duration as hours and minutes, e.g. "4h15m".
// Seconds are truncated.
func FormatElapsed(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%s%dh%02dm", sign, minutes/60, minutes%60)
}

// =============================================================================
// RANGE
// =============================================================================

// Range bounds an event query: From inclusive, To exclusive. A zero bound is
// open.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}
