package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"examquiz/internal/apierr"
	"examquiz/internal/logger"
	"examquiz/internal/models"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
)

const (
	DefaultPracticeCount = 10
	MaxPracticeCount     = 50
)

// PracticeService delivers practice questions, favouring ones the learner gets wrong
type PracticeService struct {
	learners  *repository.LearnerRepository
	questions *repository.QuestionRepository
	results   *repository.ResultRepository
	log       *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPracticeService creates a new practice service
func NewPracticeService(learners *repository.LearnerRepository, questions *repository.QuestionRepository, results *repository.ResultRepository, log *logger.Logger) *PracticeService {
	return &PracticeService{
		learners:  learners,
		questions: questions,
		results:   results,
		log:       log,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// PracticeSet picks up to count approved questions with weighted random selection and
// shuffles both the questions and their options. Answers are never included.
func (s *PracticeService) PracticeSet(ctx context.Context, uid string, subjectID *int64, count int) ([]models.PracticeQuestion, error) {
	switch {
	case count < 0:
		return nil, apierr.Validation("count must be positive")
	case count == 0:
		count = DefaultPracticeCount
	case count > MaxPracticeCount:
		count = MaxPracticeCount
	}

	learner, err := requireLearner(ctx, s.learners, uid)
	if err != nil {
		return nil, err
	}

	candidates, err := s.questions.ListPracticeQuestions(ctx, subjectID)
	if err != nil {
		return nil, apierr.Upstream("Failed to load questions", err)
	}
	if len(candidates) == 0 {
		return []models.PracticeQuestion{}, nil
	}

	history, err := s.results.QuestionAccuracy(ctx, learner.ID)
	if err != nil {
		return nil, apierr.Upstream("Failed to load attempt history", err)
	}

	s.mu.Lock()
	selected := scoring.SelectWeighted(s.rng, candidates, history, count)
	scoring.ShuffleQuestions(s.rng, selected)

	out := make([]models.PracticeQuestion, 0, len(selected))
	for _, q := range selected {
		opts, err := models.ParseOptions(q.Options)
		if err != nil {
			s.log.Warn("skipping question with malformed options", "question_id", q.ID, "error", err)
			continue
		}
		out = append(out, models.PracticeQuestion{
			ID:          q.ID,
			SubjectID:   q.SubjectID,
			SubjectName: q.SubjectName,
			Type:        string(q.Type),
			Prompt:      q.Prompt,
			Options:     scoring.ShuffleOptions(s.rng, opts.Items),
		})
	}
	s.mu.Unlock()

	return out, nil
}
