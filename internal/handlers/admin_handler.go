package handlers

import (
	"net/http"
	"strconv"

	"examquiz/internal/apierr"
	"examquiz/internal/logger"
	"examquiz/internal/models"
	"examquiz/internal/service"
)

// AdminHandler handles question review operations
type AdminHandler struct {
	review *service.ReviewService
	log    *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(review *service.ReviewService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{review: review, log: log}
}

// AutoReject runs the auto-reject sweep over approved questions
func (h *AdminHandler) AutoReject(w http.ResponseWriter, r *http.Request) {
	report, err := h.review.AutoReject(r.Context())
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondOK(w, envelope{
		"message":        report.SweepMessage(),
		"rejected_count": report.Rejected,
	})
}

type statusRequest struct {
	Status  models.QuestionStatus `json:"status"`
	Comment string                `json:"comment"`
}

// SetQuestionStatus moves a question to a new review status
func (h *AdminHandler) SetQuestionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, h.log, apierr.Validation("Invalid question ID"))
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	question, err := h.review.SetStatus(r.Context(), id, req.Status, req.Comment)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondOK(w, envelope{"question": question})
}
