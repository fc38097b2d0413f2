package models

import "time"

// Learner represents a learner account; UID is the external auth id
type Learner struct {
	ID        int64
	UID       string
	Name      string
	GradeID   *int64
	GradeName string
	Score     float64
	CreatedAt time.Time
}

// LearnerProgress summarizes a learner's attempt log
type LearnerProgress struct {
	TotalAttempts     int `json:"total_attempts"`
	CorrectAttempts   int `json:"correct_attempts"`
	Accuracy          int `json:"accuracy"`
	QuestionsAnswered int `json:"questions_answered"`
	QuestionsMastered int `json:"questions_mastered"`
}
