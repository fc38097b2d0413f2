package handlers

import (
	"net/http"

	"examquiz/internal/logger"
	"examquiz/internal/service"
)

// LeaderboardHandler serves period leaderboards and the global top learners
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
	log         *logger.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboard *service.LeaderboardService, log *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard, log: log}
}

// Leaderboard ranks learners for ?period=daily|weekly|monthly|all_time
func (h *LeaderboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.LeaderboardQuery{
		UID:    q.Get("uid"),
		Period: q.Get("period"),
	}
	if err := authorizeLearner(r.Context(), query.UID); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	var err error
	if query.SubjectID, err = optionalID(r, "subject_id"); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	if query.GradeID, err = optionalID(r, "grade_id"); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	if query.Limit, err = optionalInt(r, "limit"); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	board, err := h.leaderboard.Leaderboard(r.Context(), query)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondOK(w, envelope{"leaderboard": board})
}

// TopLearners returns the global ranking by cumulative score
func (h *LeaderboardHandler) TopLearners(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if err := authorizeLearner(r.Context(), uid); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	top, err := h.leaderboard.TopLearners(r.Context(), uid)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondOK(w, envelope{
		"rankings":               top.Rankings,
		"currentLearnerScore":    top.CurrentLearnerScore,
		"currentLearnerPosition": top.CurrentLearnerPosition,
		"totalLearners":          top.TotalLearners,
	})
}
