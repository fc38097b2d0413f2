package service

import (
	"context"
	"time"

	"examquiz/internal/apierr"
	"examquiz/internal/learnerlock"
	"examquiz/internal/logger"
	"examquiz/internal/models"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
)

// SubmitAnswerInput is a learner's answer to one question
type SubmitAnswerInput struct {
	UID        string        `json:"uid"`
	QuestionID int64         `json:"question_id"`
	Answer     models.Answer `json:"answer"`
}

// AnswerService records attempts and derives mastery from them
type AnswerService struct {
	learners  *repository.LearnerRepository
	questions *repository.QuestionRepository
	results   *repository.ResultRepository
	streaks   *StreakService
	locker    learnerlock.Locker
	points    float64
	log       *logger.Logger
	now       func() time.Time
}

// NewAnswerService creates a new answer service. points is added to the learner's
// cumulative score for every correct attempt.
func NewAnswerService(
	learners *repository.LearnerRepository,
	questions *repository.QuestionRepository,
	results *repository.ResultRepository,
	streaks *StreakService,
	locker learnerlock.Locker,
	points float64,
	log *logger.Logger,
) *AnswerService {
	return &AnswerService{
		learners:  learners,
		questions: questions,
		results:   results,
		streaks:   streaks,
		locker:    locker,
		points:    points,
		log:       log,
		now:       time.Now,
	}
}

// Submit evaluates an answer, appends the attempt and reports mastery. The learner's
// streak and score are updated afterwards; failures there are logged and do not undo
// the attempt.
func (s *AnswerService) Submit(ctx context.Context, in SubmitAnswerInput) (*models.SubmissionResult, error) {
	if err := checkUID(in.UID); err != nil {
		return nil, err
	}
	if in.QuestionID <= 0 {
		return nil, apierr.Validation("question_id is required")
	}
	if in.Answer.IsEmpty() {
		return nil, apierr.Validation("answer is required")
	}

	learner, err := requireLearner(ctx, s.learners, in.UID)
	if err != nil {
		return nil, err
	}
	question, err := s.questions.GetQuestionByID(ctx, in.QuestionID)
	if err != nil {
		return nil, apierr.Upstream("Failed to load question", err)
	}
	if question == nil {
		return nil, apierr.NotFound("question %d not found", in.QuestionID)
	}

	unlock, err := s.locker.Lock(ctx, lockKey(learner.ID))
	if err != nil {
		return nil, apierr.Upstream("Failed to lock learner", err)
	}
	defer unlock()

	outcome := scoring.Evaluate(in.Answer, question.CorrectAnswer())
	result := &models.Result{
		LearnerID:  learner.ID,
		QuestionID: question.ID,
		Answer:     in.Answer.StorageValue(),
		Outcome:    outcome,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.results.RecordResult(ctx, result); err != nil {
		return nil, apierr.Upstream("Failed to record answer", err)
	}

	recent, err := s.results.RecentOutcomes(ctx, learner.ID, question.ID, scoring.MasteryWindow)
	if err != nil {
		return nil, apierr.Upstream("Failed to load attempt history", err)
	}

	log := s.log.With("uid", learner.UID, "question_id", question.ID, "result_id", result.ID)

	if outcome.IsCorrect() && s.points != 0 {
		if err := s.learners.AddScore(ctx, learner.ID, s.points); err != nil {
			log.Error("failed to update learner score", "error", err)
		}
	}
	if s.streaks != nil {
		if _, err := s.streaks.track(ctx, learner.ID); err != nil {
			log.Error("failed to track streak after answer", "error", err)
		}
	}

	mastered := scoring.Mastered(recent)
	log.Info("answer recorded", "outcome", string(outcome), "mastered", mastered)

	return &models.SubmissionResult{
		ID:          result.ID,
		Correct:     outcome.IsCorrect(),
		Mastered:    mastered,
		Explanation: question.Explanation,
		Created:     result.CreatedAt,
	}, nil
}
