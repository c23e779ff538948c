/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes of the punch API, kept apart from engine and tracker types so
  the wire format can stay stable while the domain evolves.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DURATIONS:
  Every work time is sent twice: as elapsed text ("4h15m", what a person
  reads) and as decimal hours rounded to two places (what a spreadsheet
  sums).

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/simmons/punch/engine"
	"github.com/simmons/punch/tracker"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

type WorkTimeDTO struct {
	Gross      string          `json:"gross"`
	Net        string          `json:"net"`
	GrossHours decimal.Decimal `json:"gross_hours"`
	NetHours   decimal.Decimal `json:"net_hours"`
}

type DayDTO struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	WorkTimeDTO
}

type WeekDTO struct {
	Start   string `json:"start"`
	ISOWeek int    `json:"iso_week"`
	WorkTimeDTO
}

type EventDTO struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	At   string `json:"at"`
	Note string `json:"note,omitempty"`
}

type AnomalyDTO struct {
	Kind    string `json:"kind"`
	EventID string `json:"event_id"`
	At      string `json:"at"`
	Detail  string `json:"detail,omitempty"`
}

type ProjectDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Overhead string `json:"overhead"`
	TimeZone string `json:"timezone"`
}

// HealthDTO is the response of GET /api/healthz.
type HealthDTO struct {
	Status      string `json:"status"`
	Initialized bool   `json:"initialized"`
	InstalledAt string `json:"installed_at,omitempty"`
}

// ReportDTO is the response of GET /api/report.
type ReportDTO struct {
	Project       ProjectDTO   `json:"project"`
	GeneratedAt   string       `json:"generated_at"`
	NextDirection string       `json:"next_direction"`
	Days          []DayDTO     `json:"days"`
	Weeks         []WeekDTO    `json:"weeks"`
	Total         WorkTimeDTO  `json:"total"`
	Anomalies     []AnomalyDTO `json:"anomalies"`
	RecentEvents  []EventDTO   `json:"recent_events"`
}

// PunchRequest is the body of POST /api/punch.
type PunchRequest struct {
	Direction string `json:"direction"`
}

// NoteRequest is the body of POST /api/notes.
type NoteRequest struct {
	Text string `json:"text"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

var hour = decimal.NewFromInt(int64(time.Hour))

func hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(hour).Round(2)
}

func toWorkTimeDTO(wt engine.WorkTime) WorkTimeDTO {
	return WorkTimeDTO{
		Gross:      engine.FormatElapsed(wt.Gross),
		Net:        engine.FormatElapsed(wt.Net),
		GrossHours: hours(wt.Gross),
		NetHours:   hours(wt.Net),
	}
}

func toEventDTO(ev engine.PunchEvent, loc *time.Location) EventDTO {
	return EventDTO{
		ID:   string(ev.ID),
		Kind: string(ev.Kind),
		At:   ev.At.In(loc).Format(time.RFC3339),
		Note: ev.Note,
	}
}

func toEventDTOs(evs []engine.PunchEvent, loc *time.Location) []EventDTO {
	out := make([]EventDTO, 0, len(evs))
	for _, ev := range evs {
		out = append(out, toEventDTO(ev, loc))
	}
	return out
}

func toReportDTO(s *tracker.Summary) ReportDTO {
	r := s.Report
	dto := ReportDTO{
		Project: ProjectDTO{
			ID:       string(s.Project.ID),
			Name:     s.Project.Name,
			Overhead: engine.FormatElapsed(s.Project.Overhead),
			TimeZone: s.Location.String(),
		},
		GeneratedAt:   s.GeneratedAt.In(s.Location).Format(time.RFC3339),
		NextDirection: string(r.NextDirection),
		Days:          make([]DayDTO, 0, len(r.Days)),
		Weeks:         make([]WeekDTO, 0, len(r.Weeks)),
		Total:         toWorkTimeDTO(r.Total()),
		Anomalies:     make([]AnomalyDTO, 0, len(s.Anomalies)),
		RecentEvents:  toEventDTOs(s.RecentEvents, s.Location),
	}

	for _, d := range r.Days {
		dto.Days = append(dto.Days, DayDTO{
			Date:        d.Day.String(),
			Weekday:     d.Day.Weekday().String(),
			WorkTimeDTO: toWorkTimeDTO(d.WorkTime),
		})
	}
	for _, w := range r.Weeks {
		_, week := w.Start.ISOWeek()
		dto.Weeks = append(dto.Weeks, WeekDTO{
			Start:       w.Start.String(),
			ISOWeek:     week,
			WorkTimeDTO: toWorkTimeDTO(w.WorkTime),
		})
	}
	for _, a := range s.Anomalies {
		dto.Anomalies = append(dto.Anomalies, AnomalyDTO{
			Kind:    string(a.Kind),
			EventID: string(a.Event.ID),
			At:      a.Event.At.In(s.Location).Format(time.RFC3339),
			Detail:  a.Detail,
		})
	}
	return dto
}
