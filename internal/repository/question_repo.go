package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"examquiz/internal/database"
	"examquiz/internal/models"
)

// QuestionRepository handles database operations for subjects and questions
type QuestionRepository struct {
	db database.DBTX
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db database.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `
	q.id, q.subject_id, COALESCE(s.name, ''), q.grade_id, q.type, q.prompt, q.answer,
	q.options, q.explanation, q.status, q.comment, q.is_active, q.capturer_uid,
	q.created_at, q.updated_at
`

// CreateSubject inserts a subject and returns its id
func (r *QuestionRepository) CreateSubject(ctx context.Context, name string, gradeID *int64) (int64, error) {
	id, err := r.db.ExecReturningID(ctx, `INSERT INTO subjects (name, grade_id) VALUES (?, ?)`, name, gradeID)
	if err != nil {
		return 0, fmt.Errorf("failed to create subject: %w", err)
	}
	return id, nil
}

// CreateQuestion inserts a question and sets its ID
func (r *QuestionRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	now := time.Now().UTC()
	if q.Status == "" {
		q.Status = models.StatusNew
	}
	if q.Type == "" {
		q.Type = models.TypeMultipleChoice
	}
	if q.Options == "" {
		q.Options = "[]"
	}

	query := `
		INSERT INTO questions (subject_id, grade_id, type, prompt, answer, options, explanation,
			status, comment, is_active, capturer_uid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		q.SubjectID, q.GradeID, string(q.Type), q.Prompt, q.Answer, q.Options, q.Explanation,
		string(q.Status), q.Comment, q.IsActive, q.CapturerUID, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	q.ID = id
	q.CreatedAt = now
	q.UpdatedAt = now
	return nil
}

// GetQuestionByID retrieves a question. Returns nil, nil when absent.
func (r *QuestionRepository) GetQuestionByID(ctx context.Context, id int64) (*models.Question, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions q
		LEFT JOIN subjects s ON s.id = q.subject_id
		WHERE q.id = ?
	`
	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// ListReviewCandidates returns approved, active choice questions
func (r *QuestionRepository) ListReviewCandidates(ctx context.Context) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions q
		LEFT JOIN subjects s ON s.id = q.subject_id
		WHERE q.status = ? AND q.is_active = ` + r.db.GetDialect().BoolValue(true) + `
		  AND q.type IN (?, ?)
		ORDER BY q.id
	`
	return r.list(ctx, query, string(models.StatusApproved), string(models.TypeMultipleChoice), string(models.TypeMultiSelect))
}

// ListPracticeQuestions returns approved, active questions, optionally limited to one subject
func (r *QuestionRepository) ListPracticeQuestions(ctx context.Context, subjectID *int64) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions q
		LEFT JOIN subjects s ON s.id = q.subject_id
		WHERE q.status = ? AND q.is_active = ` + r.db.GetDialect().BoolValue(true)
	args := []interface{}{string(models.StatusApproved)}
	if subjectID != nil {
		query += ` AND q.subject_id = ?`
		args = append(args, *subjectID)
	}
	query += ` ORDER BY q.id`

	return r.list(ctx, query, args...)
}

// UpdateStatus sets a question's review status and comment. Returns false when no such question exists.
func (r *QuestionRepository) UpdateStatus(ctx context.Context, id int64, status models.QuestionStatus, comment string) (bool, error) {
	query := `UPDATE questions SET status = ?, comment = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, string(status), comment, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update question status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// ApplyReviews writes a batch of status changes. Callers wrap it in a transaction.
func (r *QuestionRepository) ApplyReviews(ctx context.Context, reviews []models.Review) error {
	for _, rv := range reviews {
		if _, err := r.UpdateStatus(ctx, rv.QuestionID, rv.Status, rv.Comment); err != nil {
			return fmt.Errorf("question %d: %w", rv.QuestionID, err)
		}
	}
	return nil
}

func (r *QuestionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Question, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (*models.Question, error) {
	q := &models.Question{}
	var gradeID sql.NullInt64
	var qType, status string
	err := row.Scan(
		&q.ID,
		&q.SubjectID,
		&q.SubjectName,
		&gradeID,
		&qType,
		&q.Prompt,
		&q.Answer,
		&q.Options,
		&q.Explanation,
		&status,
		&q.Comment,
		&q.IsActive,
		&q.CapturerUID,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if gradeID.Valid {
		q.GradeID = &gradeID.Int64
	}
	q.Type = models.QuestionType(qType)
	q.Status = models.QuestionStatus(status)
	return q, nil
}
