package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"examquiz/internal/database"
	"examquiz/internal/models"
)

// LearnerRepository handles database operations for learners and grades
type LearnerRepository struct {
	db database.DBTX
}

// NewLearnerRepository creates a new learner repository
func NewLearnerRepository(db database.DBTX) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// CreateGrade inserts a grade and returns its id
func (r *LearnerRepository) CreateGrade(ctx context.Context, name string) (int64, error) {
	id, err := r.db.ExecReturningID(ctx, `INSERT INTO grades (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to create grade: %w", err)
	}
	return id, nil
}

// CreateLearner inserts a new learner
func (r *LearnerRepository) CreateLearner(ctx context.Context, uid, name string, gradeID *int64) (*models.Learner, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO learners (uid, name, grade_id, score, created_at)
		VALUES (?, ?, ?, 0, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, uid, name, gradeID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create learner: %w", err)
	}

	return &models.Learner{
		ID:        id,
		UID:       uid,
		Name:      name,
		GradeID:   gradeID,
		CreatedAt: now,
	}, nil
}

// GetLearnerByUID retrieves a learner by external auth id. Returns nil, nil when absent.
func (r *LearnerRepository) GetLearnerByUID(ctx context.Context, uid string) (*models.Learner, error) {
	query := `
		SELECT l.id, l.uid, l.name, l.grade_id, COALESCE(g.name, ''), l.score, l.created_at
		FROM learners l
		LEFT JOIN grades g ON g.id = l.grade_id
		WHERE l.uid = ?
	`
	learner := &models.Learner{}
	var gradeID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, uid).Scan(
		&learner.ID,
		&learner.UID,
		&learner.Name,
		&gradeID,
		&learner.GradeName,
		&learner.Score,
		&learner.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}

	if gradeID.Valid {
		learner.GradeID = &gradeID.Int64
	}
	return learner, nil
}

// AddScore adds points to a learner's cumulative score
func (r *LearnerRepository) AddScore(ctx context.Context, learnerID int64, points float64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE learners SET score = score + ? WHERE id = ?`, points, learnerID)
	if err != nil {
		return fmt.Errorf("failed to update learner score: %w", err)
	}
	return nil
}

// ListByScore returns every learner ordered by cumulative score, highest first
func (r *LearnerRepository) ListByScore(ctx context.Context) ([]models.Learner, error) {
	query := `
		SELECT l.id, l.uid, l.name, COALESCE(g.name, ''), l.score
		FROM learners l
		LEFT JOIN grades g ON g.id = l.grade_id
		ORDER BY l.score DESC, l.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list learners: %w", err)
	}
	defer rows.Close()

	var learners []models.Learner
	for rows.Next() {
		var l models.Learner
		if err := rows.Scan(&l.ID, &l.UID, &l.Name, &l.GradeName, &l.Score); err != nil {
			return nil, fmt.Errorf("failed to scan learner: %w", err)
		}
		learners = append(learners, l)
	}

	return learners, rows.Err()
}
