package engine_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmons/punch/engine"
)

func TestDayOf_UsesReportingZone(t *testing.T) {
	// 2025-03-11 03:30 UTC is still March 10 in New York (UTC-4 after DST).
	ny, err := engine.LoadZone("America/New_York")
	require.NoError(t, err)

	instant := time.Date(2025, time.March, 11, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, engine.NewDay(2025, time.March, 10), engine.DayOf(instant, ny))
	assert.Equal(t, engine.NewDay(2025, time.March, 11), engine.DayOf(instant, time.UTC))
}

func TestWeekOfDay(t *testing.T) {
	wed := engine.NewDay(2025, time.March, 12)

	assert.Equal(t, engine.NewDay(2025, time.March, 10), engine.WeekOfDay(wed, time.Monday))
	assert.Equal(t, engine.NewDay(2025, time.March, 9), engine.WeekOfDay(wed, time.Sunday))
	assert.Equal(t, engine.NewDay(2025, time.March, 10),
		engine.WeekOfDay(engine.NewDay(2025, time.March, 10), time.Monday))
	assert.Equal(t, engine.NewDay(2025, time.March, 10),
		engine.WeekOfDay(engine.NewDay(2025, time.March, 16), time.Monday))
}

func TestDay_Arithmetic(t *testing.T) {
	d := engine.NewDay(2024, time.December, 31)

	assert.Equal(t, engine.NewDay(2025, time.January, 1), d.AddDays(1))
	assert.Equal(t, engine.NewDay(2024, time.February, 29), engine.NewDay(2024, time.March, 1).AddDays(-1))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.Equal(t, "2024-12-31", d.String())

	year, week := engine.NewDay(2025, time.March, 10).ISOWeek()
	assert.Equal(t, 2025, year)
	assert.Equal(t, 11, week)

	parsed, err := engine.ParseDay("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, engine.NewDay(2025, time.March, 10), parsed)
}

func TestLoadZone(t *testing.T) {
	loc, err := engine.LoadZone("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = engine.LoadZone("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = engine.LoadZone("Mars/Olympus_Mons")
	require.Error(t, err)
	assert.True(t, engine.IsConfigurationError(err))
}

func TestParseWeekday(t *testing.T) {
	wd, err := engine.ParseWeekday("Sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)

	wd, err = engine.ParseWeekday("mon")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)

	_, err = engine.ParseWeekday("someday")
	assert.True(t, engine.IsConfigurationError(err))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "4h15m", engine.FormatElapsed(4*time.Hour+15*time.Minute))
	assert.Equal(t, "0h52m", engine.FormatElapsed(52*time.Minute+30*time.Second))
	assert.Equal(t, "26h05m", engine.FormatElapsed(26*time.Hour+5*time.Minute))
	assert.Equal(t, "0h00m", engine.FormatElapsed(0))
}

func TestParseDirection(t *testing.T) {
	d, err := engine.ParseDirection(" OUT ")
	require.NoError(t, err)
	assert.Equal(t, engine.DirectionOut, d)
	assert.Equal(t, engine.KindOut, d.Kind())

	_, err = engine.ParseDirection("note")
	assert.Error(t, err)
}
