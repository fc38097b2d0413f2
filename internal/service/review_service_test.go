package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examquiz/internal/apierr"
	"examquiz/internal/logger"
	"examquiz/internal/models"
	"examquiz/internal/scoring"
)

type recordingSender struct {
	reports []SweepReport
}

func (r *recordingSender) SendSweepReport(_ context.Context, report SweepReport) error {
	r.reports = append(r.reports, report)
	return nil
}

func TestAutoRejectSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)
	ctx := context.Background()

	long := strings.Repeat("x", 22)
	var giveaway []int64
	for i := 0; i < 5; i++ {
		q := env.question(t, models.StatusApproved, `["`+long+`"]`, `["`+long+`", "a", "b"]`)
		giveaway = append(giveaway, q.ID)
	}
	fair := env.question(t, models.StatusApproved, `["Newton"]`, `["Newton", "Joule", "Watt"]`)
	malformed := env.question(t, models.StatusApproved, `Newton`, `["Newton", "Joule"]`)
	noWrong := env.question(t, models.StatusApproved, `["`+long+`"]`, `["`+long+`"]`)
	pending := env.question(t, models.StatusNew, `["`+long+`"]`, `["`+long+`", "a"]`)

	sender := &recordingSender{}
	svc := NewReviewService(env.db, scoring.AutoRejectRule{Threshold: scoring.DefaultAutoRejectThreshold}, 2, sender, logger.NewNop())

	report, err := svc.AutoReject(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, report.Scanned)
	assert.Equal(t, 5, report.Rejected)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Questions, 5)
	assert.Equal(t, "Auto-reject sweep complete: 5 of 8 question(s) rejected", report.SweepMessage())

	for _, id := range giveaway {
		q, err := env.questions.GetQuestionByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, q.Status)
		assert.Contains(t, q.Comment, "Auto-rejected")
	}
	for _, id := range []int64{fair.ID, malformed.ID, noWrong.ID} {
		q, err := env.questions.GetQuestionByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, q.Status)
	}
	q, err := env.questions.GetQuestionByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, q.Status)

	require.Len(t, sender.reports, 1)
	assert.Equal(t, 5, sender.reports[0].Rejected)

	// a second sweep finds nothing left to reject and sends no report
	report, err = svc.AutoReject(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 0, report.Rejected)
	assert.Len(t, sender.reports, 1)
}

func TestSetStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	env := newTestEnv(t)
	ctx := context.Background()
	q := env.question(t, models.StatusNew, "Newton", `[]`)
	svc := NewReviewService(env.db, scoring.AutoRejectRule{Threshold: scoring.DefaultAutoRejectThreshold}, 0, nil, logger.NewNop())

	updated, err := svc.SetStatus(ctx, q.ID, models.StatusApproved, "looks good")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, "looks good", updated.Comment)

	tests := []struct {
		name    string
		id      int64
		status  models.QuestionStatus
		comment string
		want    int
	}{
		{name: "missing id", id: 0, status: models.StatusApproved, want: http.StatusBadRequest},
		{name: "unknown status", id: q.ID, status: "archived", want: http.StatusBadRequest},
		{name: "comment too long", id: q.ID, status: models.StatusRejected, comment: strings.Repeat("x", 1001), want: http.StatusBadRequest},
		{name: "unknown question", id: 4242, status: models.StatusRejected, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetStatus(ctx, tt.id, tt.status, tt.comment)
			require.Error(t, err)
			assert.Equal(t, tt.want, apierr.As(err).Status)
		})
	}
}
