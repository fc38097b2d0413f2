package scoring

import (
	"time"

	"examquiz/internal/models"
)

// DateLayout is the calendar day format stored in learner_streaks.last_update_date
const DateLayout = "2006-01-02"

// Day returns the calendar day of t in loc
func Day(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// StreakEngine applies daily streak transitions. A day counts once the learner has
// completed DailyThreshold qualifying actions on it.
type StreakEngine struct {
	DailyThreshold int
}

// NewStreakEngine returns an engine; thresholds below 1 are raised to 1
func NewStreakEngine(dailyThreshold int) StreakEngine {
	if dailyThreshold < 1 {
		dailyThreshold = 1
	}
	return StreakEngine{DailyThreshold: dailyThreshold}
}

// Start is the state recorded for a learner's first ever qualifying action. The
// streak itself starts counting from the next qualifying day.
func (e StreakEngine) Start(learnerID int64, today string) models.StreakState {
	return models.StreakState{
		LearnerID:              learnerID,
		QuestionsAnsweredToday: 1,
		LastUpdateDate:         today,
	}
}

// Rollover moves the state onto today without counting an action. The current streak
// is lost when yesterday fell short of the threshold or when at least one whole day
// was skipped. A today earlier than the recorded day (time zone change, clock skew)
// leaves the state as it is.
func (e StreakEngine) Rollover(s models.StreakState, today string) models.StreakState {
	if s.LastUpdateDate == today {
		return s
	}

	gap, err := daysBetween(s.LastUpdateDate, today)
	if err == nil && gap < 0 {
		return s
	}
	if err != nil || gap > 1 || s.QuestionsAnsweredToday < e.DailyThreshold {
		s.CurrentStreak = 0
	}
	s.QuestionsAnsweredToday = 0
	s.LastUpdateDate = today
	return s
}

// Track records one qualifying action on today
func (e StreakEngine) Track(s models.StreakState, today string) models.StreakState {
	s = e.Rollover(s, today)
	s.QuestionsAnsweredToday++
	// exact match so later actions on the same day don't count again
	if s.QuestionsAnsweredToday == e.DailyThreshold {
		s.CurrentStreak++
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	return s
}

// Status renders the learner-facing view of s
func (e StreakEngine) Status(s models.StreakState) models.StreakStatus {
	needed := e.DailyThreshold - s.QuestionsAnsweredToday
	if needed < 0 {
		needed = 0
	}
	return models.StreakStatus{
		CurrentStreak:          s.CurrentStreak,
		LongestStreak:          s.LongestStreak,
		QuestionsAnsweredToday: s.QuestionsAnsweredToday,
		QuestionsNeededToday:   needed,
		StreakMaintained:       s.QuestionsAnsweredToday >= e.DailyThreshold,
	}
}

func daysBetween(from, to string) (int, error) {
	a, err := time.Parse(DateLayout, from)
	if err != nil {
		return 0, err
	}
	b, err := time.Parse(DateLayout, to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}
