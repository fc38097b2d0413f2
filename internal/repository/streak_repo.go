package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"examquiz/internal/database"
	"examquiz/internal/models"
)

// ErrStaleVersion is returned when a streak row changed after it was read
var ErrStaleVersion = errors.New("streak record was modified concurrently")

// StreakRepository handles learner_streaks rows
type StreakRepository struct {
	db database.DBTX
}

// NewStreakRepository creates a new streak repository
func NewStreakRepository(db database.DBTX) *StreakRepository {
	return &StreakRepository{db: db}
}

// GetStreak retrieves a learner's streak state. Returns nil, nil when none exists.
func (r *StreakRepository) GetStreak(ctx context.Context, learnerID int64) (*models.StreakState, error) {
	query := `
		SELECT learner_id, current_streak, longest_streak, questions_answered_today, last_update_date, version
		FROM learner_streaks
		WHERE learner_id = ?
	`
	s := &models.StreakState{}
	err := r.db.QueryRowContext(ctx, query, learnerID).Scan(
		&s.LearnerID,
		&s.CurrentStreak,
		&s.LongestStreak,
		&s.QuestionsAnsweredToday,
		&s.LastUpdateDate,
		&s.Version,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return s, nil
}

// SaveStreak inserts the row when s.Version is 0 and otherwise updates it only if the
// stored version still matches. s.Version is advanced on success.
func (r *StreakRepository) SaveStreak(ctx context.Context, s *models.StreakState) error {
	if s.Version == 0 {
		return r.insert(ctx, s)
	}

	query := `
		UPDATE learner_streaks
		SET current_streak = ?, longest_streak = ?, questions_answered_today = ?,
		    last_update_date = ?, version = version + 1
		WHERE learner_id = ? AND version = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		s.CurrentStreak, s.LongestStreak, s.QuestionsAnsweredToday, s.LastUpdateDate,
		s.LearnerID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleVersion
	}

	s.Version++
	return nil
}

func (r *StreakRepository) insert(ctx context.Context, s *models.StreakState) error {
	query := `
		INSERT INTO learner_streaks (learner_id, current_streak, longest_streak, questions_answered_today, last_update_date, version)
		VALUES (?, ?, ?, ?, ?, 1)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.LearnerID, s.CurrentStreak, s.LongestStreak, s.QuestionsAnsweredToday, s.LastUpdateDate,
	)
	if err != nil {
		// another writer created the row first
		if existing, getErr := r.GetStreak(ctx, s.LearnerID); getErr == nil && existing != nil {
			return ErrStaleVersion
		}
		return fmt.Errorf("failed to insert streak: %w", err)
	}

	s.Version = 1
	return nil
}
