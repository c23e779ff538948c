package engine

import "time"

const (
	DefaultOverhead   = 15 * time.Minute
	DefaultDayWindow  = 14
	DefaultWeekWindow = 8
)

// Options configures one Generate call.
type Options struct {
	// Overhead is the ramp-up time deducted once per session.
	Overhead time.Duration

	// Location is the zone used to derive calendar days and weeks.
	Location *time.Location

	// WeekStart is the first day of a reporting week.
	WeekStart time.Weekday

	// DayWindow and WeekWindow bound the report.
	DayWindow  int
	WeekWindow int

	// Now resolves open sessions and anchors FillEmpty.
	Now time.Time

	// MaterializeOpen counts an open session up to Now. Live reports want
	// this; reports over a closed historical range do not.
	MaterializeOpen bool

	// FillEmpty lists every day and week in the window, worked or not.
	FillEmpty bool
}

// DefaultOptions returns the options of a live report in the process zone.
func DefaultOptions(now time.Time) Options {
	return Options{
		Overhead:        DefaultOverhead,
		Location:        time.Local,
		WeekStart:       time.Monday,
		DayWindow:       DefaultDayWindow,
		WeekWindow:      DefaultWeekWindow,
		Now:             now,
		MaterializeOpen: true,
	}
}

// Validate fails fast on options that would make the report meaningless.
func (o Options) Validate() error {
	switch {
	case o.Overhead < 0:
		return &ConfigurationError{Field: "overhead", Value: o.Overhead, Reason: "must not be negative"}
	case o.Location == nil:
		return &ConfigurationError{Field: "timezone", Value: nil, Reason: "location is required"}
	case o.WeekStart < time.Sunday || o.WeekStart > time.Saturday:
		return &ConfigurationError{Field: "week_start", Value: int(o.WeekStart), Reason: "not a weekday"}
	case o.DayWindow <= 0:
		return &ConfigurationError{Field: "day_window", Value: o.DayWindow, Reason: "must be positive"}
	case o.WeekWindow <= 0:
		return &ConfigurationError{Field: "week_window", Value: o.WeekWindow, Reason: "must be positive"}
	case o.Now.IsZero() && (o.MaterializeOpen || o.FillEmpty):
		return &ConfigurationError{Field: "now", Value: o.Now, Reason: "required for open sessions and zero-filling"}
	}
	return nil
}
