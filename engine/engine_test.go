package engine_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmons/punch/engine"
	"github.com/simmons/punch/engine/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// 2025-03-10 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

var seq int

func ev(kind engine.Kind, t time.Time) engine.PunchEvent {
	seq++
	return engine.PunchEvent{
		ID:        engine.EventID(fmt.Sprintf("ev-%d", seq)),
		ProjectID: "p1",
		Kind:      kind,
		At:        t,
	}
}

func in(t time.Time) engine.PunchEvent  { return ev(engine.KindIn, t) }
func out(t time.Time) engine.PunchEvent { return ev(engine.KindOut, t) }

func utcOptions(now time.Time) engine.Options {
	opts := engine.DefaultOptions(now)
	opts.Location = time.UTC
	return opts
}

func day(d int) engine.Day { return engine.NewDay(2025, time.March, d) }

func hm(h, m int) time.Duration { return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute }

// =============================================================================
// SCENARIOS
// =============================================================================

func TestGenerate_SingleSessionSameDay(t *testing.T) {
	// GIVEN: In@08:00, Out@12:15 on Monday, overhead 15m
	events := []engine.PunchEvent{in(at(10, 8, 0)), out(at(10, 12, 15))}

	// WHEN: Generating a report
	res, err := engine.Generate(events, utcOptions(at(10, 18, 0)))
	require.NoError(t, err)

	// THEN: One day and one week bucket with gross 4h15m, net 4h00m
	require.Len(t, res.Report.Days, 1)
	require.Len(t, res.Report.Weeks, 1)
	assert.Equal(t, day(10), res.Report.Days[0].Day)
	assert.Equal(t, hm(4, 15), res.Report.Days[0].Gross)
	assert.Equal(t, hm(4, 0), res.Report.Days[0].Net)
	assert.Equal(t, day(10), res.Report.Weeks[0].Start)
	assert.Equal(t, engine.WorkTime{Gross: hm(4, 15), Net: hm(4, 0)}, res.Report.Weeks[0].WorkTime)
	assert.Equal(t, engine.DirectionIn, res.Report.NextDirection)
	assert.Empty(t, res.Anomalies)
}

func TestGenerate_SessionAcrossMidnightIsSplitProportionally(t *testing.T) {
	// GIVEN: In@23:00 Tuesday, Out@01:00 Wednesday
	events := []engine.PunchEvent{in(at(11, 23, 0)), out(at(12, 1, 0))}

	res, err := engine.Generate(events, utcOptions(at(12, 9, 0)))
	require.NoError(t, err)

	// THEN: 1h gross each side, net 1h45m split 52m30s / 52m30s
	require.Len(t, res.Report.Days, 2)
	wed, tue := res.Report.Days[0], res.Report.Days[1]
	assert.Equal(t, day(12), wed.Day)
	assert.Equal(t, day(11), tue.Day)
	assert.Equal(t, time.Hour, tue.Gross)
	assert.Equal(t, time.Hour, wed.Gross)
	assert.Equal(t, 52*time.Minute+30*time.Second, tue.Net)
	assert.Equal(t, 52*time.Minute+30*time.Second, wed.Net)

	// AND: the week holds the session whole
	require.Len(t, res.Report.Weeks, 1)
	assert.Equal(t, engine.WorkTime{Gross: 2 * time.Hour, Net: hm(1, 45)}, res.Report.Weeks[0].WorkTime)
}

func TestGenerate_OpenSessionMeasuredAgainstNow(t *testing.T) {
	// GIVEN: In@08:00 only, now 10:00
	events := []engine.PunchEvent{in(at(10, 8, 0))}

	res, err := engine.Generate(events, utcOptions(at(10, 10, 0)))
	require.NoError(t, err)

	// THEN: net runs to now and the next punch is Out
	require.Len(t, res.Report.Days, 1)
	assert.Equal(t, 2*time.Hour, res.Report.Days[0].Gross)
	assert.Equal(t, hm(1, 45), res.Report.Days[0].Net)
	assert.Equal(t, engine.DirectionOut, res.Report.NextDirection)
	require.Len(t, res.Sessions, 1)
	assert.True(t, res.Sessions[0].Open())
}

func TestGenerate_OpenSessionNotMaterialized(t *testing.T) {
	// GIVEN: an open session and a historical (closed range) report
	events := []engine.PunchEvent{in(at(10, 8, 0)), out(at(10, 9, 0)), in(at(10, 13, 0))}
	opts := utcOptions(at(10, 15, 0))
	opts.MaterializeOpen = false

	res, err := engine.Generate(events, opts)
	require.NoError(t, err)

	// THEN: only the closed session counts
	require.Len(t, res.Report.Days, 1)
	assert.Equal(t, time.Hour, res.Report.Days[0].Gross)
	assert.Equal(t, engine.DirectionOut, res.Report.NextDirection)
}

func TestGenerate_OrphanOut(t *testing.T) {
	// GIVEN: Out@09:00 with no In before it
	events := []engine.PunchEvent{out(at(10, 9, 0))}

	res, err := engine.Generate(events, utcOptions(at(10, 12, 0)))
	require.NoError(t, err)

	// THEN: no sessions, one malformed-session anomaly, report still built
	assert.Empty(t, res.Sessions)
	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, engine.AnomalyOrphanOut, res.Anomalies[0].Kind)
	assert.True(t, errors.Is(&res.Anomalies[0], engine.ErrMalformedSession))
	assert.Empty(t, res.Report.Days)
	assert.Equal(t, engine.DirectionIn, res.Report.NextDirection)
}

func TestGenerate_OrphanOutDoesNotHideValidData(t *testing.T) {
	events := []engine.PunchEvent{
		out(at(10, 7, 0)),
		in(at(10, 8, 0)), out(at(10, 9, 0)),
	}

	res, err := engine.Generate(events, utcOptions(at(10, 12, 0)))
	require.NoError(t, err)

	require.Len(t, res.Anomalies, 1)
	require.Len(t, res.Report.Days, 1)
	assert.Equal(t, time.Hour, res.Report.Days[0].Gross)
}

func TestGenerate_EmptyLog(t *testing.T) {
	res, err := engine.Generate(nil, utcOptions(at(10, 12, 0)))
	require.NoError(t, err)

	assert.Empty(t, res.Report.Days)
	assert.Empty(t, res.Report.Weeks)
	assert.Empty(t, res.Anomalies)
	assert.Equal(t, engine.DirectionIn, res.Report.NextDirection)
}

func TestGenerate_DoubleInExcludesAbandonedSession(t *testing.T) {
	// GIVEN: two Ins without an Out between them
	events := []engine.PunchEvent{
		in(at(10, 8, 0)),
		in(at(10, 9, 0)),
		out(at(10, 10, 0)),
	}

	res, err := engine.Generate(events, utcOptions(at(10, 12, 0)))
	require.NoError(t, err)

	// THEN: the first session is kept unterminated and flagged, only the
	// second counts
	require.Len(t, res.Sessions, 2)
	assert.True(t, res.Sessions[0].Abandoned)
	assert.True(t, res.Sessions[0].Open())
	assert.False(t, res.Sessions[1].Open())

	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, engine.AnomalyDoubleIn, res.Anomalies[0].Kind)
	assert.Equal(t, at(10, 9, 0), res.Anomalies[0].Event.At)

	require.Len(t, res.Report.Days, 1)
	assert.Equal(t, engine.WorkTime{Gross: time.Hour, Net: 45 * time.Minute}, res.Report.Days[0].WorkTime)
	assert.Equal(t, engine.DirectionIn, res.Report.NextDirection)
}

func TestGenerate_ClockSkewIsAnomalyNotClamped(t *testing.T) {
	// GIVEN: an Out stamped before its In (log not sorted)
	events := []engine.PunchEvent{in(at(10, 10, 0)), out(at(10, 9, 0))}

	res, err := engine.Generate(events, utcOptions(at(10, 12, 0)))
	require.NoError(t, err)

	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, engine.AnomalyClockSkew, res.Anomalies[0].Kind)
	assert.Empty(t, res.Report.Days)
}

func TestGenerate_NotesAreIgnored(t *testing.T) {
	note := ev(engine.KindNote, at(10, 9, 0))
	note.Note = "standup"
	events := []engine.PunchEvent{in(at(10, 8, 0)), note, out(at(10, 10, 0))}

	res, err := engine.Generate(events, utcOptions(at(10, 12, 0)))
	require.NoError(t, err)

	require.Len(t, res.Sessions, 1)
	assert.Equal(t, 2*time.Hour, res.Report.Days[0].Gross)
}

func TestGenerate_OverheadChargedPerSession(t *testing.T) {
	// GIVEN: three sessions of 1h on the same day
	events := []engine.PunchEvent{
		in(at(10, 8, 0)), out(at(10, 9, 0)),
		in(at(10, 10, 0)), out(at(10, 11, 0)),
		in(at(10, 13, 0)), out(at(10, 14, 0)),
	}

	res, err := engine.Generate(events, utcOptions(at(10, 18, 0)))
	require.NoError(t, err)

	// THEN: overhead is subtracted three times
	assert.Equal(t, 3*time.Hour, res.Report.Days[0].Gross)
	assert.Equal(t, hm(2, 15), res.Report.Days[0].Net)
}

func TestGenerate_ShortSessionNetFlooredAtZero(t *testing.T) {
	events := []engine.PunchEvent{in(at(10, 8, 0)), out(at(10, 8, 10))}

	res, err := engine.Generate(events, utcOptions(at(10, 18, 0)))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, res.Report.Days[0].Gross)
	assert.Equal(t, time.Duration(0), res.Report.Days[0].Net)
}

// =============================================================================
// WINDOWS
// =============================================================================

func TestGenerate_WindowKeepsMostRecentFirst(t *testing.T) {
	// GIVEN: one session per day for 20 days
	var events []engine.PunchEvent
	start := at(1, 9, 0)
	for i := 0; i < 20; i++ {
		d := start.AddDate(0, 0, i)
		events = append(events, in(d), out(d.Add(time.Hour)))
	}
	opts := utcOptions(at(20, 18, 0))
	opts.DayWindow = 5
	opts.WeekWindow = 2

	res, err := engine.Generate(events, opts)
	require.NoError(t, err)

	require.Len(t, res.Report.Days, 5)
	assert.Equal(t, day(20), res.Report.Days[0].Day)
	assert.Equal(t, day(16), res.Report.Days[4].Day)

	require.Len(t, res.Report.Weeks, 2)
	assert.Equal(t, day(17), res.Report.Weeks[0].Start)
	assert.Equal(t, day(10), res.Report.Weeks[1].Start)
	assert.Equal(t, 7*time.Hour, res.Report.Weeks[1].Gross)
}

func TestGenerate_FillEmpty(t *testing.T) {
	opts := utcOptions(at(12, 10, 0))
	opts.DayWindow = 3
	opts.WeekWindow = 2
	opts.FillEmpty = true

	res, err := engine.Generate([]engine.PunchEvent{in(at(11, 8, 0)), out(at(11, 9, 0))}, opts)
	require.NoError(t, err)

	require.Len(t, res.Report.Days, 3)
	assert.Equal(t, []engine.Day{day(12), day(11), day(10)},
		[]engine.Day{res.Report.Days[0].Day, res.Report.Days[1].Day, res.Report.Days[2].Day})
	assert.True(t, res.Report.Days[0].IsZero())
	assert.Equal(t, time.Hour, res.Report.Days[1].Gross)

	require.Len(t, res.Report.Weeks, 2)
	assert.Equal(t, day(10), res.Report.Weeks[0].Start)
	assert.Equal(t, day(3), res.Report.Weeks[1].Start)
}

func TestGenerate_FillEmptyIgnoresFutureDays(t *testing.T) {
	// GIVEN: a session dated two days after now, as a skewed clock would record
	opts := utcOptions(at(12, 10, 0))
	opts.DayWindow = 3
	opts.WeekWindow = 2
	opts.FillEmpty = true
	events := []engine.PunchEvent{
		in(at(11, 8, 0)), out(at(11, 9, 0)),
		in(at(14, 8, 0)), out(at(14, 9, 0)),
		in(at(24, 8, 0)), out(at(24, 9, 0)),
	}

	// WHEN
	res, err := engine.Generate(events, opts)
	require.NoError(t, err)

	// THEN: the window still ends today and no real day is pushed out
	require.Len(t, res.Report.Days, 3)
	assert.Equal(t, []engine.Day{day(12), day(11), day(10)},
		[]engine.Day{res.Report.Days[0].Day, res.Report.Days[1].Day, res.Report.Days[2].Day})

	require.Len(t, res.Report.Weeks, 2)
	assert.Equal(t, day(10), res.Report.Weeks[0].Start)
	assert.Equal(t, 2*time.Hour, res.Report.Weeks[0].Gross)
	assert.Equal(t, day(3), res.Report.Weeks[1].Start)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func TestGenerate_InvalidOptionsFailFast(t *testing.T) {
	now := at(10, 12, 0)
	cases := map[string]func(o *engine.Options){
		"negative overhead": func(o *engine.Options) { o.Overhead = -time.Minute },
		"nil location":      func(o *engine.Options) { o.Location = nil },
		"zero day window":   func(o *engine.Options) { o.DayWindow = 0 },
		"negative weeks":    func(o *engine.Options) { o.WeekWindow = -1 },
		"bad week start":    func(o *engine.Options) { o.WeekStart = time.Weekday(9) },
		"missing now":       func(o *engine.Options) { o.Now = time.Time{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := utcOptions(now)
			mutate(&opts)

			_, err := engine.Generate([]engine.PunchEvent{in(at(10, 8, 0))}, opts)
			require.Error(t, err)
			assert.True(t, engine.IsConfigurationError(err))

			var cfgErr *engine.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestFromStore_StoreUnavailable(t *testing.T) {
	mem := store.NewMemory()
	mem.Err = errors.New("disk on fire")

	res, err := engine.FromStore(t.Context(), mem, "p1", engine.Range{}, utcOptions(at(10, 12, 0)))

	require.Error(t, err)
	assert.True(t, engine.IsStoreUnavailable(err))
	assert.ErrorContains(t, err, "disk on fire")
	assert.Empty(t, res.Report.Days)
}

func TestFromStore_ReadsRange(t *testing.T) {
	mem := store.NewMemory()
	for _, e := range []engine.PunchEvent{
		in(at(3, 8, 0)), out(at(3, 9, 0)),
		in(at(10, 8, 0)), out(at(10, 10, 0)),
	} {
		require.NoError(t, mem.RecordEvent(t.Context(), e))
	}

	res, err := engine.FromStore(t.Context(), mem, "p1",
		engine.Range{From: at(10, 0, 0)}, utcOptions(at(10, 12, 0)))
	require.NoError(t, err)

	require.Len(t, res.Report.Days, 1)
	assert.Equal(t, 2*time.Hour, res.Report.Days[0].Gross)
}

// =============================================================================
// PROPERTIES
// =============================================================================

// randomLog builds a strictly alternating log with sessions of up to 30h so
// plenty of them cross midnight and week boundaries.
func randomLog(r *rand.Rand, n int) []engine.PunchEvent {
	events := make([]engine.PunchEvent, 0, 2*n)
	t := at(1, 6, 0)
	for i := 0; i < n; i++ {
		t = t.Add(time.Duration(r.Int64N(int64(10 * time.Hour))))
		events = append(events, in(t))
		t = t.Add(time.Duration(r.Int64N(int64(30 * time.Hour))))
		events = append(events, out(t))
	}
	return events
}

func wideOptions(now time.Time) engine.Options {
	opts := utcOptions(now)
	opts.DayWindow = 10000
	opts.WeekWindow = 10000
	return opts
}

func TestProperty_GrossAtLeastNetAtLeastZero(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	events := randomLog(r, 200)
	opts := wideOptions(at(1, 0, 0).AddDate(1, 0, 0))

	res, err := engine.Generate(events, opts)
	require.NoError(t, err)
	require.Empty(t, res.Anomalies)

	for _, s := range res.Sessions {
		wt, err := engine.Measure(s, opts.Overhead, opts.Now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, wt.Gross, wt.Net)
		assert.GreaterOrEqual(t, wt.Net, time.Duration(0))
	}
	for _, d := range res.Report.Days {
		assert.GreaterOrEqual(t, d.Gross, d.Net)
		assert.GreaterOrEqual(t, d.Net, time.Duration(0))
	}
}

func TestProperty_Idempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	events := randomLog(r, 50)
	opts := wideOptions(at(1, 0, 0).AddDate(0, 3, 0))

	first, err := engine.Generate(events, opts)
	require.NoError(t, err)
	second, err := engine.Generate(events, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Report, second.Report)
}

func TestProperty_SplittingConservesTime(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	events := randomLog(r, 300)
	opts := wideOptions(at(1, 0, 0).AddDate(1, 0, 0))

	res, err := engine.Generate(events, opts)
	require.NoError(t, err)

	var sessions engine.WorkTime
	for _, s := range res.Counted(opts) {
		wt, err := engine.Measure(s, opts.Overhead, opts.Now)
		require.NoError(t, err)
		sessions = sessions.Add(wt)
	}

	var days, weeks engine.WorkTime
	for _, d := range res.Report.Days {
		days = days.Add(d.WorkTime)
	}
	for _, w := range res.Report.Weeks {
		weeks = weeks.Add(w.WorkTime)
	}

	assert.Equal(t, sessions, days, "day buckets must neither create nor lose time")
	assert.Equal(t, sessions, weeks, "week buckets must neither create nor lose time")
}

func TestProperty_WeekTotalsEqualTheirDays(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	events := randomLog(r, 100)
	opts := wideOptions(at(1, 0, 0).AddDate(0, 6, 0))

	res, err := engine.Generate(events, opts)
	require.NoError(t, err)

	// Gross is pure wall-clock time, so every week equals the sum of its
	// days regardless of how sessions were split.
	byWeek := map[engine.Day]time.Duration{}
	for _, d := range res.Report.Days {
		byWeek[engine.WeekOfDay(d.Day, opts.WeekStart)] += d.Gross
	}
	for _, w := range res.Report.Weeks {
		assert.Equal(t, w.Gross, byWeek[w.Start], "week %s", w.Start)
	}
}
