package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"examquiz/internal/apierr"
	"examquiz/internal/learnerlock"
	"examquiz/internal/logger"
	"examquiz/internal/models"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
	"examquiz/internal/validation"
)

// StreakService handles daily streak bookkeeping
type StreakService struct {
	learners *repository.LearnerRepository
	streaks  *repository.StreakRepository
	engine   scoring.StreakEngine
	locker   learnerlock.Locker
	loc      *time.Location
	log      *logger.Logger
	now      func() time.Time
}

// NewStreakService creates a new streak service
func NewStreakService(
	learners *repository.LearnerRepository,
	streaks *repository.StreakRepository,
	engine scoring.StreakEngine,
	locker learnerlock.Locker,
	loc *time.Location,
	log *logger.Logger,
) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakService{
		learners: learners,
		streaks:  streaks,
		engine:   engine,
		locker:   locker,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// Track records a qualifying action for the learner and returns the new status
func (s *StreakService) Track(ctx context.Context, uid string) (*models.StreakStatus, error) {
	learner, err := s.requireLearner(ctx, uid)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lockKey(learner.ID))
	if err != nil {
		return nil, apierr.Upstream("Failed to lock learner", err)
	}
	defer unlock()

	state, err := s.track(ctx, learner.ID)
	if err != nil {
		return nil, err
	}
	status := s.engine.Status(state)
	return &status, nil
}

// Info returns the learner's streak without counting an action. A day change is
// persisted so the stored counters match what is shown.
func (s *StreakService) Info(ctx context.Context, uid string) (*models.StreakStatus, error) {
	learner, err := s.requireLearner(ctx, uid)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lockKey(learner.ID))
	if err != nil {
		return nil, apierr.Upstream("Failed to lock learner", err)
	}
	defer unlock()

	state, err := s.streaks.GetStreak(ctx, learner.ID)
	if err != nil {
		return nil, apierr.Upstream("Failed to load streak", err)
	}
	if state == nil {
		status := s.engine.Status(models.StreakState{LearnerID: learner.ID})
		return &status, nil
	}

	today := scoring.Day(s.now(), s.loc)
	if rolled := s.engine.Rollover(*state, today); rolled != *state {
		if err := s.save(ctx, &rolled); err != nil {
			return nil, err
		}
		state = &rolled
	}

	status := s.engine.Status(*state)
	return &status, nil
}

// track applies one action; the caller must hold the learner lock
func (s *StreakService) track(ctx context.Context, learnerID int64) (models.StreakState, error) {
	today := scoring.Day(s.now(), s.loc)

	current, err := s.streaks.GetStreak(ctx, learnerID)
	if err != nil {
		return models.StreakState{}, apierr.Upstream("Failed to load streak", err)
	}

	var next models.StreakState
	if current == nil {
		next = s.engine.Start(learnerID, today)
	} else {
		next = s.engine.Track(*current, today)
	}

	if err := s.save(ctx, &next); err != nil {
		return models.StreakState{}, err
	}

	s.log.Debug("streak tracked",
		"learner_id", learnerID,
		"current_streak", next.CurrentStreak,
		"answered_today", next.QuestionsAnsweredToday,
	)
	return next, nil
}

func (s *StreakService) save(ctx context.Context, state *models.StreakState) error {
	err := s.streaks.SaveStreak(ctx, state)
	if errors.Is(err, repository.ErrStaleVersion) {
		return apierr.Conflict("Streak was updated by another request, please retry", err)
	}
	if err != nil {
		return apierr.Upstream("Failed to save streak", err)
	}
	return nil
}

func (s *StreakService) requireLearner(ctx context.Context, uid string) (*models.Learner, error) {
	return requireLearner(ctx, s.learners, uid)
}

func requireLearner(ctx context.Context, learners *repository.LearnerRepository, uid string) (*models.Learner, error) {
	if err := checkUID(uid); err != nil {
		return nil, err
	}
	uid = strings.TrimSpace(uid)
	learner, err := learners.GetLearnerByUID(ctx, uid)
	if err != nil {
		return nil, apierr.Upstream("Failed to load learner", err)
	}
	if learner == nil {
		return nil, apierr.NotFound("learner %s not found", uid)
	}
	return learner, nil
}

// checkUID rejects malformed learner ids before they reach the database
func checkUID(uid string) error {
	var ve validation.ValidationError
	if err := validation.ValidateUID(uid); errors.As(err, &ve) {
		return apierr.Validation("%s", ve.Message)
	}
	return nil
}

func lockKey(learnerID int64) string {
	return "learner:" + strconv.FormatInt(learnerID, 10)
}
