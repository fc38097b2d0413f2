package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"examquiz/internal/apierr"
	"examquiz/internal/models"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
)

// Leaderboard periods
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAllTime = "all_time"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	TopLearnersLimit        = 10
)

// LeaderboardQuery selects the window and population of a leaderboard
type LeaderboardQuery struct {
	UID       string
	Period    string
	SubjectID *int64
	GradeID   *int64
	Limit     int
}

// LeaderboardService builds rankings from the attempt log and learner scores
type LeaderboardService struct {
	learners *repository.LearnerRepository
	results  *repository.ResultRepository
	loc      *time.Location
	now      func() time.Time
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(learners *repository.LearnerRepository, results *repository.ResultRepository, loc *time.Location) *LeaderboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaderboardService{learners: learners, results: results, loc: loc, now: time.Now}
}

// Leaderboard ranks learners by composite score over the requested period
func (s *LeaderboardService) Leaderboard(ctx context.Context, q LeaderboardQuery) (*models.Leaderboard, error) {
	if err := checkUID(q.UID); err != nil {
		return nil, err
	}
	if q.Period == "" {
		q.Period = PeriodWeekly
	}
	since, err := s.periodStart(q.Period)
	if err != nil {
		return nil, err
	}
	switch {
	case q.Limit < 0:
		return nil, apierr.Validation("limit must be positive")
	case q.Limit == 0:
		q.Limit = DefaultLeaderboardLimit
	case q.Limit > MaxLeaderboardLimit:
		q.Limit = MaxLeaderboardLimit
	}

	var learner *models.Learner
	var records []models.AttemptRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		learner, err = requireLearner(gctx, s.learners, q.UID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.results.ListAttempts(gctx, repository.AttemptFilter{
			Since:     since,
			SubjectID: q.SubjectID,
			GradeID:   q.GradeID,
		})
		if err != nil {
			return apierr.Upstream("Failed to load attempts", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	board := scoring.BuildLeaderboard(q.Period, records, *learner, q.Limit)
	return &board, nil
}

// TopLearners ranks every learner by cumulative score
func (s *LeaderboardService) TopLearners(ctx context.Context, uid string) (*models.TopLearners, error) {
	if err := checkUID(uid); err != nil {
		return nil, err
	}

	var learner *models.Learner
	var all []models.Learner

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		learner, err = requireLearner(gctx, s.learners, uid)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.learners.ListByScore(gctx)
		if err != nil {
			return apierr.Upstream("Failed to load learners", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	top := scoring.BuildTopLearners(all, learner.ID, TopLearnersLimit)
	return &top, nil
}

func (s *LeaderboardService) periodStart(period string) (*time.Time, error) {
	now := s.now().In(s.loc)
	var since time.Time
	switch period {
	case PeriodDaily:
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	case PeriodWeekly:
		since = now.AddDate(0, 0, -7)
	case PeriodMonthly:
		since = now.AddDate(0, 0, -30)
	case PeriodAllTime:
		return nil, nil
	default:
		return nil, apierr.Validation("unknown period %q", period)
	}
	since = since.UTC()
	return &since, nil
}
