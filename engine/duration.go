package engine

import "time"

// =============================================================================
// DURATION CALCULATOR
// =============================================================================

// Measure computes the gross and net time of a session. Open sessions are
// measured up to now. An end before the start is reported as a clock_skew
// Anomaly rather than clamped; the caller decides whether to skip it.
//
// Overhead is subtracted once per session: three sessions in a day cost
// three ramp-up periods.
func Measure(s Session, overhead time.Duration, now time.Time) (WorkTime, error) {
	end := s.EndOr(now)
	gross := end.Sub(s.Start.At)
	if gross < 0 {
		ev := s.Start
		if s.End != nil {
			ev = *s.End
		}
		sess := s
		return WorkTime{}, &Anomaly{
			Kind:    AnomalyClockSkew,
			Event:   ev,
			Session: &sess,
			Detail:  "session ends " + (-gross).String() + " before it starts",
		}
	}
	return NewWorkTime(gross, overhead), nil
}
