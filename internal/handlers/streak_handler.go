package handlers

import (
	"net/http"

	"examquiz/internal/logger"
	"examquiz/internal/service"
)

// StreakHandler exposes daily streaks
type StreakHandler struct {
	streaks *service.StreakService
	log     *logger.Logger
}

// NewStreakHandler creates a new streak handler
func NewStreakHandler(streaks *service.StreakService, log *logger.Logger) *StreakHandler {
	return &StreakHandler{streaks: streaks, log: log}
}

type trackRequest struct {
	UID string `json:"uid"`
}

// Track counts one qualifying action for the learner
func (h *StreakHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	if err := authorizeLearner(r.Context(), req.UID); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	status, err := h.streaks.Track(r.Context(), req.UID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondOK(w, envelope{"data": status})
}

// Info returns the learner's streak without counting an action
func (h *StreakHandler) Info(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if err := authorizeLearner(r.Context(), uid); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	status, err := h.streaks.Info(r.Context(), uid)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondOK(w, envelope{"data": status})
}
