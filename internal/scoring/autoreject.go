package scoring

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"examquiz/internal/models"
)

// DefaultAutoRejectThreshold is how many characters longer the correct answer may be
// than the average wrong option before the question is rejected
const DefaultAutoRejectThreshold = 20.0

// AutoRejectRule flags choice questions whose correct answer stands out by length alone
type AutoRejectRule struct {
	Threshold float64
}

// RejectDecision is the outcome of checking one question
type RejectDecision struct {
	Reject             bool
	Skipped            bool
	AvgCorrectLength   float64
	AvgIncorrectLength float64
	Comment            string
}

var errEmptyAnswer = errors.New("answer list is empty")

// Check evaluates a question's stored answer and options columns. An error means the
// question's data is malformed and it should be skipped.
func (r AutoRejectRule) Check(rawAnswer, rawOptions string) (RejectDecision, error) {
	answers, err := models.ParseAnswerList(rawAnswer)
	if err != nil {
		return RejectDecision{}, err
	}
	if len(answers) == 0 {
		return RejectDecision{}, errEmptyAnswer
	}
	options, err := models.ParseOptions(rawOptions)
	if err != nil {
		return RejectDecision{}, err
	}

	// The first answer's length is divided by the number of answers rather than
	// averaged across them. Kept as-is until product decides otherwise.
	avgCorrect := float64(utf8.RuneCountInString(answers[0])) / float64(len(answers))

	inAnswer := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		inAnswer[a] = struct{}{}
	}

	var incorrectTotal, incorrectCount int
	for _, text := range options.Texts() {
		if _, ok := inAnswer[text]; ok {
			continue
		}
		incorrectTotal += utf8.RuneCountInString(text)
		incorrectCount++
	}

	decision := RejectDecision{AvgCorrectLength: avgCorrect}
	if incorrectCount == 0 || incorrectCount == options.Len() {
		decision.Skipped = true
		return decision, nil
	}

	decision.AvgIncorrectLength = float64(incorrectTotal) / float64(incorrectCount)
	if decision.AvgCorrectLength-decision.AvgIncorrectLength > r.Threshold {
		decision.Reject = true
		decision.Comment = fmt.Sprintf(
			"Auto-rejected: correct answer length %.2f exceeds average incorrect option length %.2f by more than %g characters",
			decision.AvgCorrectLength, decision.AvgIncorrectLength, r.Threshold)
	}
	return decision, nil
}
