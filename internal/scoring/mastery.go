package scoring

import "examquiz/internal/models"

// MasteryWindow is the number of consecutive correct attempts that make a question mastered
const MasteryWindow = 3

// Mastered reports whether the newest MasteryWindow attempts are all correct.
// recent must be ordered newest first; anything past the window is ignored.
func Mastered(recent []models.Outcome) bool {
	if len(recent) < MasteryWindow {
		return false
	}
	for _, o := range recent[:MasteryWindow] {
		if !o.IsCorrect() {
			return false
		}
	}
	return true
}

// EverMastered reports whether the log, ordered oldest first, contains a run of
// MasteryWindow consecutive correct attempts. Mastery is never revoked once reached.
func EverMastered(log []models.Outcome) bool {
	run := 0
	for _, o := range log {
		if !o.IsCorrect() {
			run = 0
			continue
		}
		run++
		if run >= MasteryWindow {
			return true
		}
	}
	return false
}
