package service

import (
	"context"

	"examquiz/internal/apierr"
	"examquiz/internal/models"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
)

// ProgressService summarizes a learner's attempt log
type ProgressService struct {
	learners *repository.LearnerRepository
	results  *repository.ResultRepository
}

// NewProgressService creates a new progress service
func NewProgressService(learners *repository.LearnerRepository, results *repository.ResultRepository) *ProgressService {
	return &ProgressService{learners: learners, results: results}
}

// Progress derives totals, accuracy and mastered questions from the attempt log
func (s *ProgressService) Progress(ctx context.Context, uid string) (*models.LearnerProgress, error) {
	learner, err := requireLearner(ctx, s.learners, uid)
	if err != nil {
		return nil, err
	}

	byQuestion, err := s.results.OutcomeLog(ctx, learner.ID)
	if err != nil {
		return nil, apierr.Upstream("Failed to load attempt history", err)
	}

	progress := &models.LearnerProgress{QuestionsAnswered: len(byQuestion)}
	for _, outcomes := range byQuestion {
		for _, o := range outcomes {
			progress.TotalAttempts++
			if o.IsCorrect() {
				progress.CorrectAttempts++
			}
		}
		if scoring.EverMastered(outcomes) {
			progress.QuestionsMastered++
		}
	}
	progress.Accuracy = scoring.AccuracyPercent(progress.CorrectAttempts, progress.TotalAttempts)
	return progress, nil
}
