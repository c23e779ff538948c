package tracker

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/simmons/punch/engine"
)

// =============================================================================
// TEST DATA
// =============================================================================

const (
	seedDaysInPast    = 38
	seedMinSession    = time.Hour
	seedMaxSession    = 6 * time.Hour
	seedMinPerDay     = 7 * time.Hour
	seedMaxFuzz       = time.Hour
	seedEarliestStart = 7 * time.Hour
	seedWeekendChance = 30

	// 23:59:59, the last second a generated punch may fall on.
	seedEndOfDay = 24*time.Hour - time.Second
)

// DefaultSeed makes SeedTestData reproducible when no seed is given.
const DefaultSeed uint64 = 0x04C11DB71EDC6F41

// SeedTestData fills a project with a plausible history: every weekday from
// the week start at or before 38 days ago up to yesterday, plus about 30%
// of weekend days, each worked in 1-6h sessions starting after 07:00 until
// at least 7h are logged. The same seed always gives the same history.
func (s *Service) SeedTestData(ctx context.Context, projectID engine.ProjectID, now time.Time, seed uint64) ([]engine.PunchEvent, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	opts, err := s.engineOptions(project, now)
	if err != nil {
		return nil, err
	}

	events := generateHistory(projectID, now, opts.Location, s.opts.WeekStart, seed)
	if err := s.store.RecordEvents(ctx, events); err != nil {
		return nil, fmt.Errorf("record test data: %w", err)
	}

	log.Printf("[Seed] Recorded %d events for project %s", len(events), projectID)
	return events, nil
}

func generateHistory(projectID engine.ProjectID, now time.Time, loc *time.Location, weekStart time.Weekday, seed uint64) []engine.PunchEvent {
	rng := rand.New(rand.NewPCG(seed, seed^0x741B8CD732583499))

	today := engine.DayOf(now, loc)
	day := engine.WeekOfDay(today.AddDays(-seedDaysInPast), weekStart)

	var events []engine.PunchEvent
	for ; day.Before(today); day = day.AddDays(1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			if rng.IntN(100) >= seedWeekendChance {
				continue
			}
		}

		var worked time.Duration
		tod := seedEarliestStart
		for worked < seedMinPerDay {
			if fuzz := min(seedMaxFuzz, seedEndOfDay-tod); fuzz > 0 {
				tod += time.Duration(rng.Int64N(int64(fuzz/time.Second))) * time.Second
			}
			start := tod

			left := seedEndOfDay - tod
			if left < time.Minute {
				break
			}
			maxSession := min(seedMaxSession, left)
			if maxSession <= seedMinSession {
				break
			}
			length := seedMinSession + time.Duration(rng.Int64N(int64((maxSession-seedMinSession)/time.Second)))*time.Second
			tod += length

			events = append(events,
				seedEvent(projectID, engine.KindIn, day, start, loc),
				seedEvent(projectID, engine.KindOut, day, tod, loc),
			)
			worked += length
		}
		log.Printf("[Seed] %s: %s", day, engine.FormatElapsed(worked))
	}
	return events
}

func seedEvent(projectID engine.ProjectID, kind engine.Kind, day engine.Day, tod time.Duration, loc *time.Location) engine.PunchEvent {
	at := time.Date(day.Year, day.Month, day.Day, 0, 0, int(tod/time.Second), 0, loc)
	return engine.PunchEvent{
		ID:        engine.EventID(uuid.NewString()),
		ProjectID: projectID,
		Kind:      kind,
		At:        at.UTC(),
	}
}
