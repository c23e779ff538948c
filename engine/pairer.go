package engine

// =============================================================================
// SESSION PAIRER - Folds an ordered event log into sessions
// =============================================================================

// Pairing is the result of folding an event log into sessions.
type Pairing struct {
	Sessions      []Session
	Anomalies     []Anomaly
	NextDirection Direction
}

// pairState is the fold accumulator. It lives only for one Pair call.
type pairState struct {
	open      *Session
	sessions  []Session
	anomalies []Anomaly
}

// Pair groups events (ascending by timestamp) into sessions.
//
// Rules:
//   - In opens a session. If one is already open it is emitted unterminated
//     and flagged Abandoned (double_in anomaly), and the new In opens the
//     next session.
//   - Out closes the open session. With nothing open it is an orphan_out
//     anomaly and produces no session.
//   - Note is ignored.
//
// A session still open at the end of the log stays open.
func Pair(events []PunchEvent) Pairing {
	st := pairState{sessions: make([]Session, 0, len(events)/2+1)}
	for _, ev := range events {
		st.step(ev)
	}
	if st.open != nil {
		st.sessions = append(st.sessions, *st.open)
	}

	next := DirectionIn
	if n := len(st.sessions); n > 0 && st.sessions[n-1].Open() {
		next = DirectionOut
	}
	return Pairing{Sessions: st.sessions, Anomalies: st.anomalies, NextDirection: next}
}

func (st *pairState) step(ev PunchEvent) {
	switch ev.Kind {
	case KindIn:
		if st.open != nil {
			prev := *st.open
			prev.Abandoned = true
			st.sessions = append(st.sessions, prev)
			st.anomalies = append(st.anomalies, Anomaly{
				Kind:    AnomalyDoubleIn,
				Event:   ev,
				Session: &prev,
				Detail:  "session started at " + prev.Start.At.UTC().Format("2006-01-02 15:04:05") + " was never punched out",
			})
		}
		st.open = &Session{Start: ev}

	case KindOut:
		if st.open == nil {
			st.anomalies = append(st.anomalies, Anomaly{
				Kind:   AnomalyOrphanOut,
				Event:  ev,
				Detail: "punch out without a preceding punch in",
			})
			return
		}
		out := ev
		closed := *st.open
		closed.End = &out
		st.sessions = append(st.sessions, closed)
		st.open = nil
	}
}
