package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Register handles POST /events/{id}/register
// Confirms the caller or places them on the waitlist when full.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	result, err := h.capacity.RegisterForEvent(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// CancelRegistration handles DELETE /events/{id}/register
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	promoted, err := h.capacity.CancelRegistration(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cancelled": true,
		"promoted":  promoted,
	})
}

// Decline handles POST /events/{id}/decline
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.capacity.DeclineEvent(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"declined": true})
}

// GetCapacity handles GET /events/{id}/capacity
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	capacity, err := h.capacity.GetEventCapacity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, capacity)
}

// PromoteFromWaitlist handles POST /events/{id}/waitlist/promote
// Normally promotion happens automatically on cancellation; this endpoint
// lets an operator force a re-check, for example after raising capacity.
func (h *Handler) PromoteFromWaitlist(w http.ResponseWriter, r *http.Request) {
	promoted, err := h.capacity.PromoteFromWaitlist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"promoted": promoted})
}

// CheckAvailability handles GET /users/{id}/availability?start=...&end=...
// Times are RFC 3339; end is optional.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}
	var end *time.Time
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be an RFC 3339 timestamp")
			return
		}
		end = &t
	}

	available, err := h.conflicts.CheckUserAvailability(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}
