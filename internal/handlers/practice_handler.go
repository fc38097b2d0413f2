package handlers

import (
	"net/http"

	"examquiz/internal/logger"
	"examquiz/internal/service"
)

// PracticeHandler handles learner answers, practice sets and progress
type PracticeHandler struct {
	answers  *service.AnswerService
	practice *service.PracticeService
	progress *service.ProgressService
	log      *logger.Logger
}

// NewPracticeHandler creates a new practice handler
func NewPracticeHandler(answers *service.AnswerService, practice *service.PracticeService, progress *service.ProgressService, log *logger.Logger) *PracticeHandler {
	return &PracticeHandler{
		answers:  answers,
		practice: practice,
		progress: progress,
		log:      log,
	}
}

// SubmitAnswer records a learner's answer and reports correctness and mastery
func (h *PracticeHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var in service.SubmitAnswerInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	if err := authorizeLearner(r.Context(), in.UID); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	result, err := h.answers.Submit(r.Context(), in)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondOK(w, envelope{"result": result})
}

// PracticeQuestions returns a shuffled practice set without answers
func (h *PracticeHandler) PracticeQuestions(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if err := authorizeLearner(r.Context(), uid); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	subjectID, err := optionalID(r, "subject_id")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	count, err := optionalInt(r, "count")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	questions, err := h.practice.PracticeSet(r.Context(), uid, subjectID, count)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondOK(w, envelope{"questions": questions})
}

// Progress returns a learner's attempt totals and mastered question count
func (h *PracticeHandler) Progress(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if err := authorizeLearner(r.Context(), uid); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	progress, err := h.progress.Progress(r.Context(), uid)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondOK(w, envelope{"progress": progress})
}
