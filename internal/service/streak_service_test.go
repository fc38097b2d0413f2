package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examquiz/internal/apierr"
	"examquiz/internal/models"
)

func TestStreakFirstTrack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)
	ctx := context.Background()
	learner := env.learner(t, "uid-ann", "Ann")

	status, err := env.streaks.Track(ctx, learner.UID)
	require.NoError(t, err)
	assert.Equal(t, models.StreakStatus{
		CurrentStreak:          0,
		LongestStreak:          0,
		QuestionsAnsweredToday: 1,
		QuestionsNeededToday:   0,
		StreakMaintained:       true,
	}, *status)

	// next day with the threshold met yesterday starts the streak
	env.clock.Advance(24 * time.Hour)
	status, err = env.streaks.Track(ctx, learner.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CurrentStreak)
	assert.Equal(t, 1, status.LongestStreak)
	assert.Equal(t, 1, status.QuestionsAnsweredToday)

	// same day again does not double count
	status, err = env.streaks.Track(ctx, learner.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CurrentStreak)
	assert.Equal(t, 2, status.QuestionsAnsweredToday)
}

func TestStreakGapResets(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)
	ctx := context.Background()
	learner := env.learner(t, "uid-ann", "Ann")

	seeded := &models.StreakState{
		LearnerID:              learner.ID,
		CurrentStreak:          5,
		LongestStreak:          7,
		QuestionsAnsweredToday: 3,
		LastUpdateDate:         "2024-03-08",
	}
	require.NoError(t, env.streakRep.SaveStreak(ctx, seeded))

	status, err := env.streaks.Track(ctx, learner.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CurrentStreak, "skipped day resets, today's first action counts")
	assert.Equal(t, 7, status.LongestStreak)
	assert.Equal(t, 1, status.QuestionsAnsweredToday)
}

func TestStreakInfo(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)
	ctx := context.Background()
	learner := env.learner(t, "uid-ann", "Ann")

	t.Run("no record is the zero status and nothing is stored", func(t *testing.T) {
		status, err := env.streaks.Info(ctx, learner.UID)
		require.NoError(t, err)
		assert.Equal(t, models.StreakStatus{QuestionsNeededToday: 1}, *status)

		state, err := env.streakRep.GetStreak(ctx, learner.ID)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("day change is persisted", func(t *testing.T) {
		seeded := &models.StreakState{
			LearnerID:              learner.ID,
			CurrentStreak:          4,
			LongestStreak:          4,
			QuestionsAnsweredToday: 2,
			LastUpdateDate:         "2024-03-09",
		}
		require.NoError(t, env.streakRep.SaveStreak(ctx, seeded))

		status, err := env.streaks.Info(ctx, learner.UID)
		require.NoError(t, err)
		assert.Equal(t, 4, status.CurrentStreak, "yesterday met the threshold")
		assert.Equal(t, 0, status.QuestionsAnsweredToday)
		assert.False(t, status.StreakMaintained)

		state, err := env.streakRep.GetStreak(ctx, learner.ID)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-10", state.LastUpdateDate)
		assert.Equal(t, 0, state.QuestionsAnsweredToday)
		assert.Equal(t, int64(2), state.Version)

		// reading again on the same day changes nothing
		_, err = env.streaks.Info(ctx, learner.UID)
		require.NoError(t, err)
		state, err = env.streakRep.GetStreak(ctx, learner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), state.Version)
	})

	t.Run("recorded day ahead of clock", func(t *testing.T) {
		ahead := env.learner(t, "uid-ahead", "Ahead")
		seeded := &models.StreakState{
			LearnerID:              ahead.ID,
			CurrentStreak:          5,
			LongestStreak:          5,
			QuestionsAnsweredToday: 1,
			LastUpdateDate:         "2024-03-11",
		}
		require.NoError(t, env.streakRep.SaveStreak(ctx, seeded))

		status, err := env.streaks.Info(ctx, ahead.UID)
		require.NoError(t, err)
		assert.Equal(t, 5, status.CurrentStreak)

		status, err = env.streaks.Track(ctx, ahead.UID)
		require.NoError(t, err)
		assert.Equal(t, 5, status.CurrentStreak)
		assert.Equal(t, 2, status.QuestionsAnsweredToday)

		state, err := env.streakRep.GetStreak(ctx, ahead.ID)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-11", state.LastUpdateDate)
		assert.Equal(t, int64(2), state.Version, "only the track was written")
	})

	t.Run("unknown learner", func(t *testing.T) {
		_, err := env.streaks.Info(ctx, "ghost")
		assert.True(t, apierr.IsNotFound(err))
	})
}

func TestStreakStaleWriteIsConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)
	ctx := context.Background()
	learner := env.learner(t, "uid-ann", "Ann")

	_, err := env.streaks.Track(ctx, learner.UID)
	require.NoError(t, err)

	stale, err := env.streakRep.GetStreak(ctx, learner.ID)
	require.NoError(t, err)
	fresh := *stale
	fresh.QuestionsAnsweredToday = 9
	require.NoError(t, env.streakRep.SaveStreak(ctx, &fresh))

	stale.QuestionsAnsweredToday = 2
	err = env.streaks.save(ctx, stale)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apierr.As(err).Status)

	state, err := env.streakRep.GetStreak(ctx, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, state.QuestionsAnsweredToday)
}
