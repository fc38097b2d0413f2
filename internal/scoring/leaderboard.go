package scoring

import (
	"math"
	"sort"
	"time"

	"examquiz/internal/models"
)

// Composite score weights
const (
	SubjectBonus  = 10
	AttemptWeight = 0.5
)

// LearnerStats accumulates one learner's attempts inside a leaderboard window
type LearnerStats struct {
	LearnerID  int64
	Name       string
	Grade      string
	Total      int
	Correct    int
	Subjects   map[string]struct{}
	LastActive time.Time
}

// Aggregate groups attempt records by learner, keeping first-seen order
func Aggregate(records []models.AttemptRecord) []*LearnerStats {
	byLearner := make(map[int64]*LearnerStats)
	var out []*LearnerStats

	for _, rec := range records {
		st, ok := byLearner[rec.LearnerID]
		if !ok {
			st = &LearnerStats{
				LearnerID: rec.LearnerID,
				Name:      rec.LearnerName,
				Grade:     rec.GradeName,
				Subjects:  make(map[string]struct{}),
			}
			byLearner[rec.LearnerID] = st
			out = append(out, st)
		}
		st.Total++
		if rec.Outcome.IsCorrect() {
			st.Correct++
		}
		if rec.SubjectName != "" {
			st.Subjects[rec.SubjectName] = struct{}{}
		}
		if rec.CreatedAt.After(st.LastActive) {
			st.LastActive = rec.CreatedAt
		}
	}
	return out
}

// AccuracyPercent is round(correct / total * 100), 0 when nothing was attempted
func AccuracyPercent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// CompositeScore rewards accuracy, subject breadth and volume:
// round(accuracy + subjects*10 + total*0.5)
func CompositeScore(total, correct, subjects int) int {
	accuracy := AccuracyPercent(correct, total)
	return int(math.Round(float64(accuracy) + float64(subjects)*SubjectBonus + float64(total)*AttemptWeight))
}

// Entry converts accumulated stats into an unranked leaderboard entry
func (s *LearnerStats) Entry() models.LeaderboardEntry {
	e := models.LeaderboardEntry{
		LearnerID:       s.LearnerID,
		Name:            s.Name,
		Grade:           s.Grade,
		TotalAttempts:   s.Total,
		CorrectAttempts: s.Correct,
		Accuracy:        AccuracyPercent(s.Correct, s.Total),
		UniqueSubjects:  len(s.Subjects),
		Score:           CompositeScore(s.Total, s.Correct, len(s.Subjects)),
	}
	if !s.LastActive.IsZero() {
		last := s.LastActive
		e.LastActive = &last
	}
	return e
}

// BuildLeaderboard ranks the learners found in records and keeps the top limit entries.
// The current learner always appears exactly once: inside the top entries, or appended
// with NotInTop10 set. A current learner without attempts in the window is ranked with
// zero stats.
func BuildLeaderboard(period string, records []models.AttemptRecord, current models.Learner, limit int) models.Leaderboard {
	stats := Aggregate(records)

	found := false
	for _, st := range stats {
		if st.LearnerID == current.ID {
			found = true
			break
		}
	}
	if !found && current.ID != 0 {
		stats = append(stats, &LearnerStats{
			LearnerID: current.ID,
			Name:      current.Name,
			Grade:     current.GradeName,
			Subjects:  map[string]struct{}{},
		})
	}

	entries := make([]models.LeaderboardEntry, len(stats))
	for i, st := range stats {
		entries[i] = st.Entry()
	}
	sortEntries(entries)

	board := models.Leaderboard{Period: period, Rankings: []models.LeaderboardEntry{}}
	for i := range entries {
		entries[i].Rank = i + 1
		isCurrent := entries[i].LearnerID == current.ID
		entries[i].IsCurrentLearner = isCurrent
		if isCurrent {
			board.UserRank = entries[i].Rank
			board.UserScore = entries[i].Score
		}
		if i < limit {
			board.Rankings = append(board.Rankings, entries[i])
		} else if isCurrent {
			entries[i].NotInTop10 = true
			board.Rankings = append(board.Rankings, entries[i])
		}
	}
	return board
}

func sortEntries(entries []models.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.CorrectAttempts != b.CorrectAttempts {
			return a.CorrectAttempts > b.CorrectAttempts
		}
		return a.LearnerID < b.LearnerID
	})
}

// roundTo2 rounds to two decimals, the precision scores are compared at
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RankPositions assigns competition ranks ("1, 1, 3") to scores sorted in descending
// order. Scores equal after rounding to two decimals share a position.
func RankPositions(scores []float64) []int {
	positions := make([]int, len(scores))
	for i := range scores {
		if i > 0 && roundTo2(scores[i]) == roundTo2(scores[i-1]) {
			positions[i] = positions[i-1]
			continue
		}
		positions[i] = i + 1
	}
	return positions
}

// BuildTopLearners produces the global positional ranking over learners' cumulative
// scores, limited to limit rows plus the current learner when outside them.
func BuildTopLearners(learners []models.Learner, currentID int64, limit int) models.TopLearners {
	sorted := make([]models.Learner, len(learners))
	copy(sorted, learners)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].ID < sorted[j].ID
	})

	scores := make([]float64, len(sorted))
	for i, l := range sorted {
		scores[i] = l.Score
	}
	positions := RankPositions(scores)

	out := models.TopLearners{
		Rankings:      []models.TopLearner{},
		TotalLearners: len(sorted),
	}
	for i, l := range sorted {
		row := models.TopLearner{
			Name:             l.Name,
			Score:            roundTo2(l.Score),
			Position:         positions[i],
			IsCurrentLearner: l.ID == currentID,
		}
		if row.IsCurrentLearner {
			out.CurrentLearnerScore = row.Score
			out.CurrentLearnerPosition = row.Position
		}
		if i < limit {
			out.Rankings = append(out.Rankings, row)
		} else if row.IsCurrentLearner {
			row.NotInTop10 = true
			out.Rankings = append(out.Rankings, row)
		}
	}
	return out
}
