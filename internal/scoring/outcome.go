// Package scoring holds the pure computations behind answer submission, streaks,
// leaderboards and the auto-reject sweep. Nothing here touches the store.
package scoring

import (
	"strings"

	"examquiz/internal/models"
)

// Evaluate compares a submitted answer to the stored one. The comparison is
// case-insensitive on the string forms only: whitespace, punctuation and the order of
// multi-select entries are significant.
func Evaluate(submitted, correct models.Answer) models.Outcome {
	return models.OutcomeOf(strings.ToLower(submitted.String()) == strings.ToLower(correct.String()))
}
