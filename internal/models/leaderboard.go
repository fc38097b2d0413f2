package models

import "time"

// LeaderboardEntry is one learner's aggregated standing for a period. It is derived on
// every request and never stored.
type LeaderboardEntry struct {
	LearnerID        int64      `json:"learner_id"`
	Name             string     `json:"name"`
	Grade            string     `json:"grade"`
	TotalAttempts    int        `json:"total_attempts"`
	CorrectAttempts  int        `json:"correct_attempts"`
	Accuracy         int        `json:"accuracy"`
	UniqueSubjects   int        `json:"unique_subjects"`
	LastActive       *time.Time `json:"last_active"`
	Score            int        `json:"score"`
	Rank             int        `json:"rank"`
	IsCurrentLearner bool       `json:"is_current_learner"`
	NotInTop10       bool       `json:"notInTop10,omitempty"`
}

// Leaderboard is the ranked view for one period
type Leaderboard struct {
	Period    string             `json:"period"`
	UserRank  int                `json:"user_rank"`
	UserScore int                `json:"user_score"`
	Rankings  []LeaderboardEntry `json:"rankings"`
}

// TopLearner is one row of the global positional ranking
type TopLearner struct {
	Name             string  `json:"name"`
	Score            float64 `json:"score"`
	Position         int     `json:"position"`
	IsCurrentLearner bool    `json:"isCurrentLearner"`
	NotInTop10       bool    `json:"notInTop10,omitempty"`
}

// TopLearners is the global ranking with the viewer's own standing
type TopLearners struct {
	Rankings               []TopLearner `json:"rankings"`
	CurrentLearnerScore    float64      `json:"currentLearnerScore"`
	CurrentLearnerPosition int          `json:"currentLearnerPosition"`
	TotalLearners          int          `json:"totalLearners"`
}
