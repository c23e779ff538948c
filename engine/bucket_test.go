package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmons/punch/engine"
)

func TestBuckets_SessionCrossingWeekBoundary(t *testing.T) {
	// GIVEN: Sunday 22:00 -> Monday 02:00, weeks start Monday
	b := engine.NewBuckets(time.UTC, time.Monday)
	start := at(16, 22, 0)
	end := at(17, 2, 0)
	b.Add(start, end, engine.NewWorkTime(end.Sub(start), 15*time.Minute))

	// THEN: both the days and the weeks are split 2h/2h
	half := engine.WorkTime{Gross: 2 * time.Hour, Net: time.Hour + 52*time.Minute + 30*time.Second}
	assert.Equal(t, half, b.Day(day(16)))
	assert.Equal(t, half, b.Day(day(17)))
	assert.Equal(t, half, b.Week(day(10)))
	assert.Equal(t, half, b.Week(day(17)))
}

func TestBuckets_SameSessionWholeInSundayWeek(t *testing.T) {
	// GIVEN: the same Sunday/Monday session with weeks starting Sunday
	b := engine.NewBuckets(time.UTC, time.Sunday)
	start := at(16, 22, 0)
	end := at(17, 2, 0)
	b.Add(start, end, engine.NewWorkTime(end.Sub(start), 15*time.Minute))

	// THEN: split across days but whole in week 2025-03-16
	assert.Equal(t, 2*time.Hour, b.Day(day(16)).Gross)
	assert.Equal(t, engine.WorkTime{Gross: 4 * time.Hour, Net: hm(3, 45)}, b.Week(day(16)))
	assert.Len(t, b.WeekTotals(), 1)
}

func TestBuckets_MultiDaySession(t *testing.T) {
	// GIVEN: Monday 20:00 -> Wednesday 04:00 (32h)
	b := engine.NewBuckets(time.UTC, time.Monday)
	start := at(10, 20, 0)
	end := at(12, 4, 0)
	wt := engine.NewWorkTime(end.Sub(start), 15*time.Minute)
	b.Add(start, end, wt)

	days := b.DayTotals()
	require.Len(t, days, 3)
	assert.Equal(t, 4*time.Hour, b.Day(day(10)).Gross)
	assert.Equal(t, 24*time.Hour, b.Day(day(11)).Gross)
	assert.Equal(t, 4*time.Hour, b.Day(day(12)).Gross)

	// Net 31h45m prorated 4/32, 24/32, remainder.
	assert.Equal(t, hm(3, 58)+7*time.Second+500*time.Millisecond, b.Day(day(10)).Net)
	assert.Equal(t, hm(23, 48)+45*time.Second, b.Day(day(11)).Net)

	var sum engine.WorkTime
	for _, d := range days {
		sum = sum.Add(d.WorkTime)
	}
	assert.Equal(t, wt, sum)
}

func TestBuckets_SplitAtLocalMidnightAcrossDST(t *testing.T) {
	// GIVEN: Berlin springs forward at 02:00 on 2025-03-30. A session from
	// 23:00 local on the 29th to 04:00 local on the 30th lasts 4h.
	berlin, err := engine.LoadZone("Europe/Berlin")
	require.NoError(t, err)

	start := time.Date(2025, time.March, 29, 23, 0, 0, 0, berlin)
	end := time.Date(2025, time.March, 30, 4, 0, 0, 0, berlin)
	require.Equal(t, 4*time.Hour, end.Sub(start))

	b := engine.NewBuckets(berlin, time.Monday)
	b.Add(start.UTC(), end.UTC(), engine.NewWorkTime(end.Sub(start), 0))

	// THEN: 1h before local midnight, 3h after
	assert.Equal(t, time.Hour, b.Day(day(29)).Gross)
	assert.Equal(t, 3*time.Hour, b.Day(day(30)).Gross)
}

func TestBuckets_ZeroLengthSession(t *testing.T) {
	b := engine.NewBuckets(time.UTC, time.Monday)
	b.Add(at(10, 8, 0), at(10, 8, 0), engine.NewWorkTime(0, 15*time.Minute))

	require.Len(t, b.DayTotals(), 1)
	assert.True(t, b.Day(day(10)).IsZero())
}

func TestBuckets_OrderIndependent(t *testing.T) {
	sessions := [][2]time.Time{
		{at(10, 8, 0), at(10, 12, 0)},
		{at(11, 23, 0), at(12, 1, 30)},
		{at(16, 20, 0), at(17, 3, 0)},
	}

	forward := engine.NewBuckets(time.UTC, time.Monday)
	for _, s := range sessions {
		forward.Add(s[0], s[1], engine.NewWorkTime(s[1].Sub(s[0]), 15*time.Minute))
	}
	backward := engine.NewBuckets(time.UTC, time.Monday)
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		backward.Add(s[0], s[1], engine.NewWorkTime(s[1].Sub(s[0]), 15*time.Minute))
	}

	assert.Equal(t, forward.DayTotals(), backward.DayTotals())
	assert.Equal(t, forward.WeekTotals(), backward.WeekTotals())
}
