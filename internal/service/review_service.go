package service

import (
	"context"
	"errors"
	"fmt"

	"examquiz/internal/apierr"
	"examquiz/internal/database"
	"examquiz/internal/logger"
	"examquiz/internal/models"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
	"examquiz/internal/validation"
)

// DefaultReviewBatchSize is how many rejections are written per transaction
const DefaultReviewBatchSize = 100

// RejectedQuestion is one question flagged by the sweep
type RejectedQuestion struct {
	QuestionID         int64
	AvgCorrectLength   float64
	AvgIncorrectLength float64
}

// SweepReport summarizes an auto-reject sweep. Rejected counts flushed rejections only.
type SweepReport struct {
	Scanned   int
	Rejected  int
	Skipped   int
	Failed    int
	Questions []RejectedQuestion
}

// ReportSender delivers sweep reports to reviewers
type ReportSender interface {
	SendSweepReport(ctx context.Context, report SweepReport) error
}

// ReviewService handles question review: the auto-reject sweep and manual transitions
type ReviewService struct {
	db        *database.DB
	questions *repository.QuestionRepository
	rule      scoring.AutoRejectRule
	batchSize int
	reporter  ReportSender
	log       *logger.Logger
}

// NewReviewService creates a new review service; reporter may be nil
func NewReviewService(db *database.DB, rule scoring.AutoRejectRule, batchSize int, reporter ReportSender, log *logger.Logger) *ReviewService {
	if batchSize <= 0 {
		batchSize = DefaultReviewBatchSize
	}
	return &ReviewService{
		db:        db,
		questions: repository.NewQuestionRepository(db),
		rule:      rule,
		batchSize: batchSize,
		reporter:  reporter,
		log:       log,
	}
}

// AutoReject scans approved, active choice questions and rejects those whose correct
// answer is much longer than the wrong options. Malformed questions are logged and
// skipped. A failed batch write stops the sweep; earlier batches stay committed.
func (s *ReviewService) AutoReject(ctx context.Context) (*SweepReport, error) {
	candidates, err := s.questions.ListReviewCandidates(ctx)
	if err != nil {
		return nil, apierr.Upstream("Failed to load questions", err)
	}

	report := &SweepReport{}
	var pending []models.Review
	var pendingInfo []RejectedQuestion

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		err := s.db.WithTx(ctx, func(tx *database.Tx) error {
			return repository.NewQuestionRepository(tx).ApplyReviews(ctx, pending)
		})
		if err != nil {
			return err
		}
		report.Rejected += len(pending)
		report.Questions = append(report.Questions, pendingInfo...)
		s.log.Debug("auto-reject batch flushed", "size", len(pending))
		pending = pending[:0]
		pendingInfo = pendingInfo[:0]
		return nil
	}

	for _, q := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		decision, err := s.rule.Check(q.Answer, q.Options)
		if err != nil {
			report.Failed++
			s.log.Warn("skipping malformed question", "question_id", q.ID, "error", err)
			continue
		}
		if decision.Skipped {
			report.Skipped++
			continue
		}
		if !decision.Reject {
			continue
		}

		pending = append(pending, models.Review{
			QuestionID: q.ID,
			Status:     models.StatusRejected,
			Comment:    decision.Comment,
		})
		pendingInfo = append(pendingInfo, RejectedQuestion{
			QuestionID:         q.ID,
			AvgCorrectLength:   decision.AvgCorrectLength,
			AvgIncorrectLength: decision.AvgIncorrectLength,
		})
		if len(pending) >= s.batchSize {
			if err := flush(); err != nil {
				return report, apierr.Upstream("Failed to save rejected questions", err)
			}
		}
	}
	if err := flush(); err != nil {
		return report, apierr.Upstream("Failed to save rejected questions", err)
	}

	s.log.Info("auto-reject sweep finished",
		"scanned", report.Scanned,
		"rejected", report.Rejected,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)

	if report.Rejected > 0 && s.reporter != nil {
		if err := s.reporter.SendSweepReport(ctx, *report); err != nil {
			s.log.Error("failed to send sweep report", "error", err)
		}
	}
	return report, nil
}

// SweepMessage is the human readable summary returned to the operator
func (r *SweepReport) SweepMessage() string {
	return fmt.Sprintf("Auto-reject sweep complete: %d of %d question(s) rejected", r.Rejected, r.Scanned)
}

// SetStatus moves a question to a new review status
func (s *ReviewService) SetStatus(ctx context.Context, id int64, status models.QuestionStatus, comment string) (*models.Question, error) {
	if id <= 0 {
		return nil, apierr.Validation("question id is required")
	}
	if !status.Valid() {
		return nil, apierr.Validation("unknown status %q", status)
	}
	var ve validation.ValidationError
	if err := validation.ValidateComment(comment); errors.As(err, &ve) {
		return nil, apierr.Validation("%s", ve.Message)
	}

	ok, err := s.questions.UpdateStatus(ctx, id, status, comment)
	if err != nil {
		return nil, apierr.Upstream("Failed to update question", err)
	}
	if !ok {
		return nil, apierr.NotFound("question %d not found", id)
	}

	q, err := s.questions.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, apierr.Upstream("Failed to load question", err)
	}
	if q == nil {
		return nil, apierr.NotFound("question %d not found", id)
	}

	s.log.Info("question status changed", "question_id", id, "status", string(status))
	return q, nil
}
