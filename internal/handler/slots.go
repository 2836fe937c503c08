package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meetgrid/scheduler/internal/model"
)

type assignPlayerRequest struct {
	Position *int `json:"position,omitempty"`
}

type promoteAlternateRequest struct {
	Position int `json:"position"`
}

type swapPositionsRequest struct {
	UserID1 string `json:"user_id_1"`
	UserID2 string `json:"user_id_2"`
}

type updateStatusRequest struct {
	Status model.EventStatus `json:"status"`
	Reason string            `json:"reason"`
}

// GetSlots handles GET /events/{id}/slots
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	availability, err := h.pods.GetAvailableSlots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

// AssignPlayerSlot handles POST /events/{id}/slots/player
func (h *Handler) AssignPlayerSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req assignPlayerRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	result, err := h.pods.AssignPlayerSlot(r.Context(), chi.URLParam(r, "id"), userID, req.Position)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// AssignAlternateSlot handles POST /events/{id}/slots/alternate
func (h *Handler) AssignAlternateSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	result, err := h.pods.AssignAlternateSlot(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// PromoteAlternate handles POST /events/{id}/slots/promote
func (h *Handler) PromoteAlternate(w http.ResponseWriter, r *http.Request) {
	var req promoteAlternateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	result, err := h.pods.PromoteAlternate(r.Context(), chi.URLParam(r, "id"), req.Position)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SwapPositions handles POST /events/{id}/slots/swap
func (h *Handler) SwapPositions(w http.ResponseWriter, r *http.Request) {
	var req swapPositionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID1 == "" || req.UserID2 == "" {
		writeError(w, http.StatusBadRequest, "user_id_1 and user_id_2 are required")
		return
	}
	if err := h.pods.SwapPlayerPositions(r.Context(), chi.URLParam(r, "id"), req.UserID1, req.UserID2); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"swapped": true})
}

// RemovePlayerSlot handles DELETE /events/{id}/slots/player
func (h *Handler) RemovePlayerSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.pods.RemovePlayerSlot(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus handles POST /events/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.lifecycle.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, &userID, req.Reason); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": req.Status})
}

// StatusHistory handles GET /events/{id}/history
func (h *Handler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.lifecycle.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if history == nil {
		history = []model.EventStatusChange{}
	}
	writeJSON(w, http.StatusOK, history)
}

// ProcessExpired handles POST /maintenance/expire-events
// Invoked by an external scheduler; transitions are system-triggered.
func (h *Handler) ProcessExpired(w http.ResponseWriter, r *http.Request) {
	result, err := h.lifecycle.ProcessExpiredEvents(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
