package engine

import (
	"strings"
	"time"
)

// =============================================================================
// DAY - Calendar date in the reporting zone (used as bucket keys)
// =============================================================================

// Day is a calendar date with no zone attached. It is comparable and safe to
// use as a map key.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDay normalises out-of-range values the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DayOf is the single place where an instant meets the reporting zone.
func DayOf(t time.Time, loc *time.Location) Day {
	local := t.In(loc)
	return Day{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// Start returns the instant of local midnight that begins d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Day) AddDays(n int) Day { return NewDay(d.Year, d.Month, d.Day+n) }

func (d Day) civil() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

func (d Day) Before(o Day) bool { return d.civil().Before(o.civil()) }
func (d Day) After(o Day) bool  { return d.civil().After(o.civil()) }
func (d Day) IsZero() bool      { return d == Day{} }

func (d Day) Weekday() time.Weekday { return d.civil().Weekday() }

// ISOWeek returns the ISO 8601 year and week number of d.
func (d Day) ISOWeek() (year, week int) { return d.civil().ISOWeek() }

func (d Day) String() string { return d.civil().Format("2006-01-02") }

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, err
	}
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// =============================================================================
// WEEK - Weeks are keyed by the Day they start on
// =============================================================================

// WeekOfDay returns the first day of the week containing d.
func WeekOfDay(d Day, weekStart time.Weekday) Day {
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDays(-offset)
}

// WeekOf returns the week key for an instant in loc.
func WeekOf(t time.Time, loc *time.Location, weekStart time.Weekday) Day {
	return WeekOfDay(DayOf(t, loc), weekStart)
}

// =============================================================================
// ZONE / WEEKDAY PARSING
// =============================================================================

// LoadZone resolves a zone name. "" and "Local" mean the process zone.
func LoadZone(name string) (*time.Location, error) {
	switch name {
	case "", "Local", "local":
		return time.Local, nil
	case "UTC", "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ConfigurationError{Field: "timezone", Value: name, Reason: err.Error()}
	}
	return loc, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday accepts full or three-letter English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, &ConfigurationError{Field: "week_start", Value: s, Reason: "unknown weekday"}
	}
	return wd, nil
}
