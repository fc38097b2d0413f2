package models

import "time"

// Outcome is the correctness of one attempt
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

func (o Outcome) IsCorrect() bool {
	return o == OutcomeCorrect
}

// OutcomeOf converts a boolean into an Outcome
func OutcomeOf(correct bool) Outcome {
	if correct {
		return OutcomeCorrect
	}
	return OutcomeIncorrect
}

// Result represents one immutable attempt by a learner on a question
type Result struct {
	ID         int64
	LearnerID  int64
	QuestionID int64
	Answer     string
	Outcome    Outcome
	CreatedAt  time.Time
}

// AttemptRecord is an attempt joined with the learner and subject it belongs to
type AttemptRecord struct {
	LearnerID   int64
	LearnerUID  string
	LearnerName string
	GradeName   string
	SubjectName string
	Outcome     Outcome
	CreatedAt   time.Time
}

// SubmissionResult is returned to the learner after an answer is recorded
type SubmissionResult struct {
	ID          int64     `json:"id"`
	Correct     bool      `json:"correct"`
	Mastered    bool      `json:"mastered"`
	Explanation string    `json:"explanation"`
	Created     time.Time `json:"created"`
}

// QuestionAccuracy is a learner's history on a single question
type QuestionAccuracy struct {
	QuestionID int64
	Attempts   int
	Correct    int
}

// Rate returns the fraction of correct attempts
func (q QuestionAccuracy) Rate() float64 {
	if q.Attempts == 0 {
		return 0
	}
	return float64(q.Correct) / float64(q.Attempts)
}
