package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"examquiz/internal/database"
	"examquiz/internal/logger"
)

// BackupVersion identifies the export layout
const BackupVersion = "1.0"

// BackupData represents a complete export of the scoring tables
type BackupData struct {
	Version      string           `json:"version"`
	ExportedAt   time.Time        `json:"exported_at"`
	DatabaseType string           `json:"database_type"`
	Grades       []GradeBackup    `json:"grades"`
	Subjects     []SubjectBackup  `json:"subjects"`
	Learners     []LearnerBackup  `json:"learners"`
	Questions    []QuestionBackup `json:"questions"`
	Results      []ResultBackup   `json:"results"`
	Streaks      []StreakBackup   `json:"streaks"`
}

// GradeBackup represents a grade record for backup
type GradeBackup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SubjectBackup represents a subject record for backup
type SubjectBackup struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	GradeID *int64 `json:"grade_id"`
}

// LearnerBackup represents a learner record for backup
type LearnerBackup struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	GradeID   *int64    `json:"grade_id"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestionBackup represents a question for backup
type QuestionBackup struct {
	ID          int64     `json:"id"`
	SubjectID   int64     `json:"subject_id"`
	GradeID     *int64    `json:"grade_id"`
	Type        string    `json:"type"`
	Prompt      string    `json:"prompt"`
	Answer      string    `json:"answer"`
	Options     string    `json:"options"`
	Explanation string    `json:"explanation"`
	Status      string    `json:"status"`
	Comment     string    `json:"comment"`
	IsActive    bool      `json:"is_active"`
	CapturerUID string    `json:"capturer_uid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResultBackup represents one attempt for backup
type ResultBackup struct {
	ID         int64     `json:"id"`
	LearnerID  int64     `json:"learner_id"`
	QuestionID int64     `json:"question_id"`
	Answer     string    `json:"answer"`
	Outcome    string    `json:"outcome"`
	CreatedAt  time.Time `json:"created_at"`
}

// StreakBackup represents a learner's streak row for backup
type StreakBackup struct {
	LearnerID              int64  `json:"learner_id"`
	CurrentStreak          int    `json:"current_streak"`
	LongestStreak          int    `json:"longest_streak"`
	QuestionsAnsweredToday int    `json:"questions_answered_today"`
	LastUpdateDate         string `json:"last_update_date"`
	Version                int64  `json:"version"`
}

// BackupService exports the database as JSON
type BackupService struct {
	db  *database.DB
	log *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{db: db, log: log}
}

// Export writes a complete backup of the scoring tables to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	s.log.Info("starting database export")

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	steps := []struct {
		name string
		fn   func(context.Context, *BackupData) error
	}{
		{"grades", s.exportGrades},
		{"subjects", s.exportSubjects},
		{"learners", s.exportLearners},
		{"questions", s.exportQuestions},
		{"results", s.exportResults},
		{"streaks", s.exportStreaks},
	}
	for _, step := range steps {
		if err := step.fn(ctx, backup); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("database exported",
		"grades", len(backup.Grades),
		"subjects", len(backup.Subjects),
		"learners", len(backup.Learners),
		"questions", len(backup.Questions),
		"results", len(backup.Results),
		"streaks", len(backup.Streaks),
	)
	return backup, nil
}

// each runs query and calls scan once per row
func (s *BackupService) each(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func (s *BackupService) exportGrades(ctx context.Context, backup *BackupData) error {
	return s.each(ctx, `SELECT id, name FROM grades ORDER BY id`, func(rows *sql.Rows) error {
		var g GradeBackup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return err
		}
		backup.Grades = append(backup.Grades, g)
		return nil
	})
}

func (s *BackupService) exportSubjects(ctx context.Context, backup *BackupData) error {
	return s.each(ctx, `SELECT id, name, grade_id FROM subjects ORDER BY id`, func(rows *sql.Rows) error {
		var sb SubjectBackup
		var gradeID sql.NullInt64
		if err := rows.Scan(&sb.ID, &sb.Name, &gradeID); err != nil {
			return err
		}
		sb.GradeID = nullableID(gradeID)
		backup.Subjects = append(backup.Subjects, sb)
		return nil
	})
}

func (s *BackupService) exportLearners(ctx context.Context, backup *BackupData) error {
	query := `SELECT id, uid, name, grade_id, score, created_at FROM learners ORDER BY id`
	return s.each(ctx, query, func(rows *sql.Rows) error {
		var l LearnerBackup
		var gradeID sql.NullInt64
		if err := rows.Scan(&l.ID, &l.UID, &l.Name, &gradeID, &l.Score, &l.CreatedAt); err != nil {
			return err
		}
		l.GradeID = nullableID(gradeID)
		backup.Learners = append(backup.Learners, l)
		return nil
	})
}

func (s *BackupService) exportQuestions(ctx context.Context, backup *BackupData) error {
	query := `
		SELECT id, subject_id, grade_id, type, prompt, answer, options, explanation, status,
			comment, is_active, capturer_uid, created_at, updated_at
		FROM questions ORDER BY id
	`
	return s.each(ctx, query, func(rows *sql.Rows) error {
		var q QuestionBackup
		var gradeID sql.NullInt64
		err := rows.Scan(&q.ID, &q.SubjectID, &gradeID, &q.Type, &q.Prompt, &q.Answer, &q.Options,
			&q.Explanation, &q.Status, &q.Comment, &q.IsActive, &q.CapturerUID, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return err
		}
		q.GradeID = nullableID(gradeID)
		backup.Questions = append(backup.Questions, q)
		return nil
	})
}

func (s *BackupService) exportResults(ctx context.Context, backup *BackupData) error {
	query := `SELECT id, learner_id, question_id, answer, outcome, created_at FROM results ORDER BY id`
	return s.each(ctx, query, func(rows *sql.Rows) error {
		var r ResultBackup
		if err := rows.Scan(&r.ID, &r.LearnerID, &r.QuestionID, &r.Answer, &r.Outcome, &r.CreatedAt); err != nil {
			return err
		}
		backup.Results = append(backup.Results, r)
		return nil
	})
}

func (s *BackupService) exportStreaks(ctx context.Context, backup *BackupData) error {
	query := `
		SELECT learner_id, current_streak, longest_streak, questions_answered_today, last_update_date, version
		FROM learner_streaks ORDER BY learner_id
	`
	return s.each(ctx, query, func(rows *sql.Rows) error {
		var st StreakBackup
		err := rows.Scan(&st.LearnerID, &st.CurrentStreak, &st.LongestStreak, &st.QuestionsAnsweredToday,
			&st.LastUpdateDate, &st.Version)
		if err != nil {
			return err
		}
		backup.Streaks = append(backup.Streaks, st)
		return nil
	})
}
