package scoring

import (
	"math/rand"

	"examquiz/internal/models"
)

// Weight given to questions the learner has never attempted
const unseenWeight = 0.7

// QuestionWeight favours questions the learner gets wrong.
// 100% success = 0.1, 0% success = 1.0
func QuestionWeight(history models.QuestionAccuracy, seen bool) float64 {
	if !seen || history.Attempts == 0 {
		return unseenWeight
	}
	return 1.0 - history.Rate()*0.9
}

// SelectWeighted draws up to count questions without replacement, each draw weighted by
// QuestionWeight. When count covers every candidate all of them are returned.
func SelectWeighted(rng *rand.Rand, candidates []models.Question, history map[int64]models.QuestionAccuracy, count int) []models.Question {
	if count >= len(candidates) {
		out := make([]models.Question, len(candidates))
		copy(out, candidates)
		return out
	}

	type weighted struct {
		q      models.Question
		weight float64
	}
	remaining := make([]weighted, len(candidates))
	for i, q := range candidates {
		h, seen := history[q.ID]
		remaining[i] = weighted{q: q, weight: QuestionWeight(h, seen)}
	}

	selected := make([]models.Question, 0, count)
	for len(selected) < count && len(remaining) > 0 {
		total := 0.0
		for _, w := range remaining {
			total += w.weight
		}

		r := rng.Float64() * total
		pick := len(remaining) - 1
		cumulative := 0.0
		for i, w := range remaining {
			cumulative += w.weight
			if r < cumulative {
				pick = i
				break
			}
		}

		selected = append(selected, remaining[pick].q)
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	return selected
}

// ShuffleQuestions randomizes delivery order in place
func ShuffleQuestions(rng *rand.Rand, qs []models.Question) {
	rng.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
}

// ShuffleOptions returns a shuffled copy of the options; keys travel with their text
func ShuffleOptions(rng *rand.Rand, opts []models.Option) []models.Option {
	out := make([]models.Option, len(opts))
	copy(out, opts)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
