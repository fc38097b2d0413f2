package repository

import (
	"context"
	"fmt"
	"time"

	"examquiz/internal/database"
	"examquiz/internal/models"
)

// ResultRepository handles the insert-only attempt log
type ResultRepository struct {
	db database.DBTX
}

// NewResultRepository creates a new result repository
func NewResultRepository(db database.DBTX) *ResultRepository {
	return &ResultRepository{db: db}
}

// AttemptFilter narrows the attempts read for a leaderboard
type AttemptFilter struct {
	Since     *time.Time
	SubjectID *int64
	GradeID   *int64
}

// RecordResult appends an attempt and sets its ID
func (r *ResultRepository) RecordResult(ctx context.Context, res *models.Result) error {
	query := `
		INSERT INTO results (learner_id, question_id, answer, outcome, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, res.LearnerID, res.QuestionID, res.Answer, string(res.Outcome), res.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	res.ID = id
	return nil
}

// RecentOutcomes returns up to limit outcomes of a learner on one question, newest first
func (r *ResultRepository) RecentOutcomes(ctx context.Context, learnerID, questionID int64, limit int) ([]models.Outcome, error) {
	query := `
		SELECT outcome
		FROM results
		WHERE learner_id = ? AND question_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, learnerID, questionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []models.Outcome
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcomes = append(outcomes, models.Outcome(o))
	}
	return outcomes, rows.Err()
}

// ListAttempts returns attempts joined with learner, grade and subject names
func (r *ResultRepository) ListAttempts(ctx context.Context, f AttemptFilter) ([]models.AttemptRecord, error) {
	query := `
		SELECT r.learner_id, l.uid, l.name, COALESCE(g.name, ''), COALESCE(s.name, ''), r.outcome, r.created_at
		FROM results r
		JOIN learners l ON l.id = r.learner_id
		JOIN questions q ON q.id = r.question_id
		LEFT JOIN subjects s ON s.id = q.subject_id
		LEFT JOIN grades g ON g.id = l.grade_id
		WHERE 1 = 1
	`
	var args []interface{}
	if f.Since != nil {
		query += ` AND r.created_at >= ?`
		args = append(args, f.Since.UTC())
	}
	if f.SubjectID != nil {
		query += ` AND q.subject_id = ?`
		args = append(args, *f.SubjectID)
	}
	if f.GradeID != nil {
		query += ` AND l.grade_id = ?`
		args = append(args, *f.GradeID)
	}
	query += ` ORDER BY r.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var records []models.AttemptRecord
	for rows.Next() {
		var rec models.AttemptRecord
		var outcome string
		if err := rows.Scan(&rec.LearnerID, &rec.LearnerUID, &rec.LearnerName, &rec.GradeName, &rec.SubjectName, &outcome, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		rec.Outcome = models.Outcome(outcome)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// QuestionAccuracy returns the learner's attempt counts per question
func (r *ResultRepository) QuestionAccuracy(ctx context.Context, learnerID int64) (map[int64]models.QuestionAccuracy, error) {
	query := `
		SELECT question_id, COUNT(*), SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END)
		FROM results
		WHERE learner_id = ?
		GROUP BY question_id
	`
	rows, err := r.db.QueryContext(ctx, query, string(models.OutcomeCorrect), learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question accuracy: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]models.QuestionAccuracy)
	for rows.Next() {
		var qa models.QuestionAccuracy
		if err := rows.Scan(&qa.QuestionID, &qa.Attempts, &qa.Correct); err != nil {
			return nil, fmt.Errorf("failed to scan question accuracy: %w", err)
		}
		out[qa.QuestionID] = qa
	}
	return out, rows.Err()
}

// OutcomeLog returns every outcome of a learner grouped by question, oldest first
func (r *ResultRepository) OutcomeLog(ctx context.Context, learnerID int64) (map[int64][]models.Outcome, error) {
	query := `
		SELECT question_id, outcome
		FROM results
		WHERE learner_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome log: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]models.Outcome)
	for rows.Next() {
		var questionID int64
		var outcome string
		if err := rows.Scan(&questionID, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		out[questionID] = append(out[questionID], models.Outcome(outcome))
	}
	return out, rows.Err()
}
