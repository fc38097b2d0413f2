package models

// StreakState is a learner's persisted daily streak bookkeeping
type StreakState struct {
	LearnerID              int64
	CurrentStreak          int
	LongestStreak          int
	QuestionsAnsweredToday int
	LastUpdateDate         string // YYYY-MM-DD in the streak time zone
	Version                int64  // optimistic concurrency token, 0 when not yet persisted
}

// StreakStatus is the streak view returned to learners
type StreakStatus struct {
	CurrentStreak          int  `json:"currentStreak"`
	LongestStreak          int  `json:"longestStreak"`
	QuestionsAnsweredToday int  `json:"questionsAnsweredToday"`
	QuestionsNeededToday   int  `json:"questionsNeededToday"`
	StreakMaintained       bool `json:"streakMaintained"`
}
