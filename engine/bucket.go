package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BUCKET AGGREGATOR - Day and week totals keyed by local calendar date
// =============================================================================

// Buckets accumulates session work time into day and week totals.
//
// A session crossing local midnight is split at every midnight. The gross
// fragments are the wall-clock pieces; the net fragments are the session's
// net time prorated by the same ratio, so overhead is still charged once per
// session. Weeks are split the same way at week boundaries, independently of
// the day split.
//
// Buckets is not safe for concurrent use; build one per report.
type Buckets struct {
	loc       *time.Location
	weekStart time.Weekday
	days      map[Day]WorkTime
	weeks     map[Day]WorkTime
}

func NewBuckets(loc *time.Location, weekStart time.Weekday) *Buckets {
	return &Buckets{
		loc:       loc,
		weekStart: weekStart,
		days:      make(map[Day]WorkTime),
		weeks:     make(map[Day]WorkTime),
	}
}

// Add attributes wt, measured over [start, end], to every day and week the
// interval touches.
func (b *Buckets) Add(start, end time.Time, wt WorkTime) {
	spread(b.days, start, end, wt, b.loc,
		func(t time.Time) Day { return DayOf(t, b.loc) },
		func(d Day) Day { return d.AddDays(1) })
	spread(b.weeks, start, end, wt, b.loc,
		func(t time.Time) Day { return WeekOf(t, b.loc, b.weekStart) },
		func(d Day) Day { return d.AddDays(7) })
}

// Touch makes sure a day bucket exists, even if empty.
func (b *Buckets) Touch(day Day) {
	if _, ok := b.days[day]; !ok {
		b.days[day] = WorkTime{}
	}
}

// TouchWeek makes sure the week bucket containing day exists.
func (b *Buckets) TouchWeek(day Day) {
	w := WeekOfDay(day, b.weekStart)
	if _, ok := b.weeks[w]; !ok {
		b.weeks[w] = WorkTime{}
	}
}

// Day returns the total for a single day.
func (b *Buckets) Day(d Day) WorkTime { return b.days[d] }

// Week returns the total for the week starting on start.
func (b *Buckets) Week(start Day) WorkTime { return b.weeks[start] }

// DayTotals returns all day buckets, most recent first.
func (b *Buckets) DayTotals() []DayTotal {
	out := make([]DayTotal, 0, len(b.days))
	for d, wt := range b.days {
		out = append(out, DayTotal{Day: d, WorkTime: wt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.After(out[j].Day) })
	return out
}

// WeekTotals returns all week buckets, most recent first.
func (b *Buckets) WeekTotals() []WeekTotal {
	out := make([]WeekTotal, 0, len(b.weeks))
	for d, wt := range b.weeks {
		out = append(out, WeekTotal{Start: d, WorkTime: wt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	return out
}

// spread walks [start, end] boundary by boundary. The last fragment takes
// whatever is left so the fragments always sum to wt exactly.
func spread(into map[Day]WorkTime, start, end time.Time, wt WorkTime, loc *time.Location,
	keyOf func(time.Time) Day, next func(Day) Day) {

	var assigned WorkTime
	cur := start
	for end.After(cur) {
		key := keyOf(cur)
		boundary := next(key).Start(loc)
		if !boundary.After(cur) || !boundary.Before(end) {
			break
		}
		gross := boundary.Sub(cur)
		frag := WorkTime{Gross: gross, Net: prorate(wt.Net, gross, wt.Gross)}
		into[key] = into[key].Add(frag)
		assigned = assigned.Add(frag)
		cur = boundary
	}
	key := keyOf(cur)
	into[key] = into[key].Add(wt.Sub(assigned))
}

// prorate returns total*part/whole rounded to the nearest nanosecond. The
// product of two day-scale durations overflows int64, hence decimal.
func prorate(total, part, whole time.Duration) time.Duration {
	if whole <= 0 {
		return 0
	}
	v := decimal.NewFromInt(int64(total)).
		Mul(decimal.NewFromInt(int64(part))).
		Div(decimal.NewFromInt(int64(whole))).
		Round(0)
	return time.Duration(v.IntPart())
}
