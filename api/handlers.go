/*
handlers.go - HTTP API handlers for punch

PURPOSE:
  Exposes the tracker service over REST. Handles HTTP request/response and
  JSON serialization, and delegates everything else to tracker.Service.

ENDPOINTS:
  GET    /api/report          Day and week report of the project
  GET    /api/events?limit=N  Most recent events, newest first
  POST   /api/punch           Punch in or out ({"direction": "in"})
  POST   /api/notes           Record a note ({"text": "..."})
  GET    /api/healthz         Liveness and database check

PROJECT:
  An installation has one user and one project; every endpoint acts on it.
  Before "punch init" has run, endpoints answer 404.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Not initialized
  - 409: Wrong punch direction
  - 503: Database unavailable
  - 500: Internal errors, including a stored project the engine rejects

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/simmons/punch/engine"
	"github.com/simmons/punch/tracker"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Tracker *tracker.Service

	// Now is the clock used for reports and punches.
	Now func() time.Time
}

// NewHandler creates a handler on the real clock.
func NewHandler(svc *tracker.Service) *Handler {
	return &Handler{Tracker: svc, Now: time.Now}
}

func (h *Handler) project(ctx context.Context) (*tracker.Project, error) {
	return h.Tracker.DefaultProject(ctx)
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// GetReport returns the day and week report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, err := h.project(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	summary, err := h.Tracker.Summary(ctx, project.ID, h.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(summary))
}

// ListEvents returns the most recent events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	project, err := h.project(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	loc, err := h.Tracker.Location(project)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	evs, err := h.Tracker.RecentEvents(ctx, project.ID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(evs, loc))
}

// =============================================================================
// PUNCH ENDPOINTS
// =============================================================================

// Punch records a punch in or out.
func (h *Handler) Punch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	dir, err := engine.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "direction must be \"in\" or \"out\"", err)
		return
	}

	project, err := h.project(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ev, err := h.Tracker.Punch(ctx, project.ID, dir, h.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev, time.UTC))
}

// AddNote records a note without punching.
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	project, err := h.project(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ev, err := h.Tracker.Note(ctx, project.ID, req.Text, h.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(ev, time.UTC))
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the database answers and since when the
// installation exists. An uninitialized database is still healthy.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if p, ok := h.Tracker.Store().(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	resp := HealthDTO{Status: "ok"}
	install, err := h.Tracker.Installation(ctx)
	switch {
	case err == nil:
		resp.Initialized = true
		resp.InstalledAt = install.CreatedAt.UTC().Format(time.RFC3339)
	case !tracker.IsNotFound(err):
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps tracker and engine errors to a status code.
func writeServiceError(w http.ResponseWriter, err error) {
	var unexpected *tracker.UnexpectedPunchError
	switch {
	case errors.As(err, &unexpected):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:    "unexpected punch",
			Details:  err.Error(),
			Expected: string(unexpected.Expected),
		})
	case tracker.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	case tracker.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case tracker.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", err)
	case engine.IsStoreUnavailable(err):
		log.Printf("[Server] Database unavailable: %v", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable", nil)
	default:
		log.Printf("[Server] Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
