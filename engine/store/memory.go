// Package store provides engine.EventStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/simmons/punch/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	events map[engine.ProjectID][]engine.PunchEvent
	ids    map[engine.EventID]bool

	// Err, when set, is returned by every read to simulate an outage.
	Err error
}

func NewMemory() *Memory {
	return &Memory{
		events: make(map[engine.ProjectID][]engine.PunchEvent),
		ids:    make(map[engine.EventID]bool),
	}
}

// RecordEvent appends an event. Append-only.
func (m *Memory) RecordEvent(_ context.Context, ev engine.PunchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return engine.Unavailable("record event", m.Err)
	}
	return m.appendLocked(ev)
}

// RecordEvents appends several events atomically.
func (m *Memory) RecordEvents(_ context.Context, evs []engine.PunchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return engine.Unavailable("record events", m.Err)
	}
	seen := make(map[engine.EventID]bool, len(evs))
	for _, ev := range evs {
		if ev.ID == "" {
			continue
		}
		if m.ids[ev.ID] || seen[ev.ID] {
			return ErrDuplicateEvent
		}
		seen[ev.ID] = true
	}
	for _, ev := range evs {
		if err := m.appendLocked(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) appendLocked(ev engine.PunchEvent) error {
	if ev.ID != "" && m.ids[ev.ID] {
		return ErrDuplicateEvent
	}
	ev.At = ev.At.UTC()
	evs := m.events[ev.ProjectID]

	// Insert after every event with the same timestamp so ties keep
	// insertion order.
	i := sort.Search(len(evs), func(i int) bool {
		return evs[i].At.After(ev.At)
	})
	evs = append(evs, engine.PunchEvent{})
	copy(evs[i+1:], evs[i:])
	evs[i] = ev
	m.events[ev.ProjectID] = evs

	if ev.ID != "" {
		m.ids[ev.ID] = true
	}
	return nil
}

func (m *Memory) FetchEvents(_ context.Context, projectID engine.ProjectID, r engine.Range) ([]engine.PunchEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, engine.Unavailable("fetch events", m.Err)
	}

	var result []engine.PunchEvent
	for _, ev := range m.events[projectID] {
		if r.Contains(ev.At) {
			result = append(result, ev)
		}
	}
	return result, nil
}

func (m *Memory) LastEventBefore(_ context.Context, projectID engine.ProjectID, t time.Time, kinds ...engine.Kind) (*engine.PunchEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, engine.Unavailable("last event", m.Err)
	}

	evs := m.events[projectID]
	for i := len(evs) - 1; i >= 0; i-- {
		ev := evs[i]
		if !ev.At.Before(t) || !kindIn(ev.Kind, kinds) {
			continue
		}
		return &ev, nil
	}
	return nil, nil
}

// Recent returns the newest limit events, newest first.
func (m *Memory) Recent(_ context.Context, projectID engine.ProjectID, limit int) ([]engine.PunchEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, engine.Unavailable("recent events", m.Err)
	}

	evs := m.events[projectID]
	out := make([]engine.PunchEvent, 0, limit)
	for i := len(evs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, evs[i])
	}
	return out, nil
}

func kindIn(k engine.Kind, kinds []engine.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
