package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"examquiz/internal/database"
	"examquiz/internal/learnerlock"
	"examquiz/internal/logger"
	"examquiz/internal/models"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
)

// testEnv wires every service against a fresh SQLite database
type testEnv struct {
	db        *database.DB
	gradeID   int64
	subjectID int64
	clock     *fakeClock

	learners  *repository.LearnerRepository
	questions *repository.QuestionRepository
	results   *repository.ResultRepository
	streakRep *repository.StreakRepository

	streaks     *StreakService
	answers     *AnswerService
	leaderboard *LeaderboardService
	practice    *PracticeService
	progress    *ProgressService
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	ctx := context.Background()
	env := &testEnv{
		db:        db,
		clock:     &fakeClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
		learners:  repository.NewLearnerRepository(db),
		questions: repository.NewQuestionRepository(db),
		results:   repository.NewResultRepository(db),
		streakRep: repository.NewStreakRepository(db),
	}

	env.gradeID, err = env.learners.CreateGrade(ctx, "Grade 12")
	require.NoError(t, err)
	env.subjectID, err = env.questions.CreateSubject(ctx, "Physical Sciences", &env.gradeID)
	require.NoError(t, err)

	log := logger.NewNop()
	locker := learnerlock.NewLocal()

	env.streaks = NewStreakService(env.learners, env.streakRep, scoring.NewStreakEngine(1), locker, time.UTC, log)
	env.streaks.now = env.clock.Now
	env.answers = NewAnswerService(env.learners, env.questions, env.results, env.streaks, locker, 1, log)
	env.answers.now = env.clock.Now
	env.leaderboard = NewLeaderboardService(env.learners, env.results, time.UTC)
	env.leaderboard.now = env.clock.Now
	env.practice = NewPracticeService(env.learners, env.questions, env.results, log)
	env.progress = NewProgressService(env.learners, env.results)

	return env
}

func (e *testEnv) learner(t *testing.T, uid, name string) *models.Learner {
	t.Helper()
	l, err := e.learners.CreateLearner(context.Background(), uid, name, &e.gradeID)
	require.NoError(t, err)
	return l
}

func (e *testEnv) question(t *testing.T, status models.QuestionStatus, answer, options string) *models.Question {
	t.Helper()
	q := &models.Question{
		SubjectID:   e.subjectID,
		Type:        models.TypeMultipleChoice,
		Prompt:      "What is the SI unit of force?",
		Answer:      answer,
		Options:     options,
		Explanation: "Force is measured in newtons.",
		Status:      status,
		IsActive:    true,
	}
	require.NoError(t, e.questions.CreateQuestion(context.Background(), q))
	return q
}
