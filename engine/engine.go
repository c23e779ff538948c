package engine

import (
	"context"
	"errors"
)

// Result is everything one report run produces. Anomalies sit next to the
// report instead of failing it, so callers can show valid data with a
// warning.
type Result struct {
	Report    Report
	Sessions  []Session
	Anomalies []Anomaly
}

// Counted returns the sessions whose time went into the report.
func (r Result) Counted(opts Options) []Session {
	var out []Session
	for _, s := range r.Sessions {
		if s.Abandoned || (s.Open() && !opts.MaterializeOpen) {
			continue
		}
		if _, err := Measure(s, opts.Overhead, opts.Now); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Generate runs the whole pipeline over events, which must be ascending by
// timestamp. It holds no state between calls: the same events and options
// always give the same Result.
//
// Abandoned sessions (double in) and clock-skewed sessions are excluded from
// the totals and reported as anomalies. Open sessions are counted up to
// opts.Now only when opts.MaterializeOpen is set.
func Generate(events []PunchEvent, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	pairing := Pair(events)
	anomalies := pairing.Anomalies
	buckets := NewBuckets(opts.Location, opts.WeekStart)

	for _, s := range pairing.Sessions {
		if s.Abandoned {
			continue
		}
		if s.Open() && !opts.MaterializeOpen {
			continue
		}
		wt, err := Measure(s, opts.Overhead, opts.Now)
		if err != nil {
			var a *Anomaly
			if errors.As(err, &a) {
				anomalies = append(anomalies, *a)
				continue
			}
			return Result{}, err
		}
		buckets.Add(s.Start.At, s.EndOr(opts.Now), wt)
	}

	var today Day
	if !opts.Now.IsZero() {
		today = DayOf(opts.Now, opts.Location)
	}
	report := Assemble(buckets, pairing.NextDirection, Window{
		Days:      opts.DayWindow,
		Weeks:     opts.WeekWindow,
		FillEmpty: opts.FillEmpty,
		Today:     today,
	})

	return Result{Report: report, Sessions: pairing.Sessions, Anomalies: anomalies}, nil
}

// FromStore fetches events for a project and runs Generate over them. A
// store failure is returned as ErrStoreUnavailable with no partial report;
// there is no retry.
func FromStore(ctx context.Context, store EventFetcher, projectID ProjectID, r Range, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	events, err := store.FetchEvents(ctx, projectID, r)
	if err != nil {
		return Result{}, Unavailable("fetch events", err)
	}
	return Generate(events, opts)
}
