package engine

// =============================================================================
// REPORT ASSEMBLER
// =============================================================================

// DayTotal is the work time of one calendar day.
type DayTotal struct {
	Day Day
	WorkTime
}

// WeekTotal is the work time of the week beginning on Start.
type WeekTotal struct {
	Start Day
	WorkTime
}

// Report is the presentation-ready summary: days and weeks most recent
// first, plus the punch the user is expected to make next.
type Report struct {
	Days          []DayTotal
	Weeks         []WeekTotal
	NextDirection Direction
}

// Window bounds a report. Today anchors zero-filling; it is ignored when
// FillEmpty is false.
type Window struct {
	Days      int
	Weeks     int
	FillEmpty bool
	Today     Day
}

// Assemble orders the buckets most recent first and keeps the last
// w.Days days and w.Weeks weeks. With FillEmpty every day and week in the
// window ending at w.Today is listed, worked or not, and buckets after
// w.Today are dropped so future-dated punches cannot displace it.
func Assemble(b *Buckets, next Direction, w Window) Report {
	if w.FillEmpty {
		for i := 0; i < w.Days; i++ {
			b.Touch(w.Today.AddDays(-i))
		}
		for i := 0; i < w.Weeks; i++ {
			b.TouchWeek(w.Today.AddDays(-7 * i))
		}
	}

	days := b.DayTotals()
	weeks := b.WeekTotals()
	if w.FillEmpty {
		days = dropDaysAfter(days, w.Today)
		weeks = dropWeeksAfter(weeks, w.Today)
	}

	if len(days) > w.Days {
		days = days[:w.Days]
	}
	if len(weeks) > w.Weeks {
		weeks = weeks[:w.Weeks]
	}
	return Report{Days: days, Weeks: weeks, NextDirection: next}
}

// Total sums the listed days.
func (r Report) Total() WorkTime {
	var t WorkTime
	for _, d := range r.Days {
		t = t.Add(d.WorkTime)
	}
	return t
}

// dropDaysAfter trims the leading (most recent) days later than today.
func dropDaysAfter(days []DayTotal, today Day) []DayTotal {
	for len(days) > 0 && days[0].Day.After(today) {
		days = days[1:]
	}
	return days
}

// dropWeeksAfter trims the leading weeks that start later than today.
func dropWeeksAfter(weeks []WeekTotal, today Day) []WeekTotal {
	for len(weeks) > 0 && weeks[0].Start.After(today) {
		weeks = weeks[1:]
	}
	return weeks
}
