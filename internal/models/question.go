package models

import "time"

// QuestionStatus is the review state of a question
type QuestionStatus string

const (
	StatusNew      QuestionStatus = "new"
	StatusApproved QuestionStatus = "approved"
	StatusRejected QuestionStatus = "rejected"
)

// Valid reports whether s is a known review status
func (s QuestionStatus) Valid() bool {
	switch s {
	case StatusNew, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// QuestionType identifies how a question is answered
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeMultiSelect    QuestionType = "multi_select"
	TypeFreeText       QuestionType = "free_text"
)

// IsChoice reports whether the question offers a fixed set of options
func (t QuestionType) IsChoice() bool {
	return t == TypeMultipleChoice || t == TypeMultiSelect
}

// Question represents a question authored by a capturer
type Question struct {
	ID          int64          `json:"id"`
	SubjectID   int64          `json:"subject_id"`
	SubjectName string         `json:"subject_name"`
	GradeID     *int64         `json:"grade_id"`
	Type        QuestionType   `json:"type"`
	Prompt      string         `json:"prompt"`
	Answer      string         `json:"answer"`  // raw column value, see ParseStoredAnswer
	Options     string         `json:"options"` // raw column value, see ParseOptions
	Explanation string         `json:"explanation"`
	Status      QuestionStatus `json:"status"`
	Comment     string         `json:"comment"`
	IsActive    bool           `json:"is_active"`
	CapturerUID string         `json:"capturer_uid"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CorrectAnswer parses the stored answer
func (q *Question) CorrectAnswer() Answer {
	return ParseStoredAnswer(q.Answer)
}

// Review is a pending status change produced by a reviewer or the auto-reject sweep
type Review struct {
	QuestionID int64
	Status     QuestionStatus
	Comment    string
}

// PracticeQuestion is a question as delivered to a learner, without its answer
type PracticeQuestion struct {
	ID          int64    `json:"id"`
	SubjectID   int64    `json:"subject_id"`
	SubjectName string   `json:"subject_name"`
	Type        string   `json:"type"`
	Prompt      string   `json:"prompt"`
	Options     []Option `json:"options"`
}
