// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/meetgrid/scheduler/internal/model"
	"github.com/meetgrid/scheduler/internal/repository"
	"github.com/meetgrid/scheduler/internal/service"
)

// Handler holds all HTTP handlers for the scheduling API.
type Handler struct {
	events    *service.EventService
	conflicts *service.ConflictService
	capacity  *service.CapacityService
	pods      *service.PodService
	lifecycle *service.LifecycleService
	log       *logrus.Logger
}

// New constructs a Handler.
func New(
	events *service.EventService,
	conflicts *service.ConflictService,
	capacity *service.CapacityService,
	pods *service.PodService,
	lifecycle *service.LifecycleService,
	log *logrus.Logger,
) *Handler {
	return &Handler{
		events:    events,
		conflicts: conflicts,
		capacity:  capacity,
		pods:      pods,
		lifecycle: lifecycle,
		log:       log,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// requireUser extracts the caller's identity set by the auth middleware
// upstream of this service. Identity verification itself is out of scope
// here.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return "", false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var conflictErr *service.ConflictError
	var transitionErr *service.InvalidTransitionError
	switch {
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, struct {
			Error    string               `json:"error"`
			Conflict *model.ConflictCheck `json:"conflict"`
		}{conflictErr.Error(), conflictErr.Check})
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrRegistrationClosed),
		errors.Is(err, service.ErrPositionOccupied),
		errors.Is(err, service.ErrNoSlotsAvailable),
		errors.Is(err, service.ErrNoAlternateSlots),
		errors.Is(err, service.ErrNoAlternates):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotRegistered),
		errors.Is(err, service.ErrInvalidPosition),
		service.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Event CRUD ───────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), creatorID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListUpcomingEvents(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if events == nil {
		events = []model.EventSummary{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PATCH /events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.UpdateEvent(r.Context(), chi.URLParam(r, "id"), userID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.events.DeleteEvent(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAttendees handles GET /events/{id}/attendees
func (h *Handler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.events.ListAttendees(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if attendees == nil {
		attendees = []model.Attendee{}
	}
	writeJSON(w, http.StatusOK, attendees)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
