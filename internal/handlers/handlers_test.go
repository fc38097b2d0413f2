package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examquiz/internal/apierr"
	"examquiz/internal/database"
	"examquiz/internal/learnerlock"
	"examquiz/internal/logger"
	"examquiz/internal/models"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
	"examquiz/internal/security"
	"examquiz/internal/service"
)

const adminToken = "let-me-in"

// fakeVerifier maps bearer tokens to learner uids
type fakeVerifier map[string]string

func (f fakeVerifier) Verify(_ context.Context, token string) (string, error) {
	uid, ok := f[token]
	if !ok {
		return "", security.ErrInvalidToken
	}
	return uid, nil
}

type testServer struct {
	handler   http.Handler
	learners  *repository.LearnerRepository
	questions *repository.QuestionRepository
	subjectID int64
}

type serverOptions struct {
	verifier  security.TokenVerifier
	adminHash string
	limiter   *security.RateLimiter
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	log := logger.NewNop()
	locker := learnerlock.NewLocal()
	learners := repository.NewLearnerRepository(db)
	questions := repository.NewQuestionRepository(db)
	results := repository.NewResultRepository(db)
	streakRepo := repository.NewStreakRepository(db)

	streaks := service.NewStreakService(learners, streakRepo, scoring.NewStreakEngine(1), locker, time.UTC, log)
	answers := service.NewAnswerService(learners, questions, results, streaks, locker, 1, log)
	review := service.NewReviewService(db, scoring.AutoRejectRule{Threshold: scoring.DefaultAutoRejectThreshold}, 10, nil, log)

	h := Handlers{
		Practice: NewPracticeHandler(answers,
			service.NewPracticeService(learners, questions, results, log),
			service.NewProgressService(learners, results), log),
		Streaks:     NewStreakHandler(streaks, log),
		Leaderboard: NewLeaderboardHandler(service.NewLeaderboardService(learners, results, time.UTC), log),
		Admin:       NewAdminHandler(review, log),
	}
	m := NewMiddleware(opts.verifier, security.NewAdminTokens(opts.adminHash), opts.limiter, log)

	ctx := context.Background()
	gradeID, err := learners.CreateGrade(ctx, "Grade 11")
	require.NoError(t, err)
	subjectID, err := questions.CreateSubject(ctx, "Life Sciences", &gradeID)
	require.NoError(t, err)
	_, err = learners.CreateLearner(ctx, "uid-ann", "Ann", &gradeID)
	require.NoError(t, err)
	_, err = learners.CreateLearner(ctx, "uid-ben", "Ben", &gradeID)
	require.NoError(t, err)

	return &testServer{
		handler:   NewRouter(h, m),
		learners:  learners,
		questions: questions,
		subjectID: subjectID,
	}
}

func (s *testServer) question(t *testing.T, answer, options string) *models.Question {
	t.Helper()
	q := &models.Question{
		SubjectID:   s.subjectID,
		Type:        models.TypeMultipleChoice,
		Prompt:      "Which organelle releases energy?",
		Answer:      answer,
		Options:     options,
		Explanation: "Cellular respiration happens in the mitochondrion.",
		Status:      models.StatusApproved,
		IsActive:    true,
	}
	require.NoError(t, s.questions.CreateQuestion(context.Background(), q))
	return q
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	rec, body := srv.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusOK, body["status"])
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	rec, _ = srv.do(t, http.MethodGet, "/healthz", "", map[string]string{HeaderRequestID: "req-123"})
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
}

func TestSubmitAnswerEndpoint(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	q := srv.question(t, "Mitochondrion", `["Mitochondrion", "Ribosome"]`)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantOK     bool
		correct    bool
	}{
		{name: "correct answer", body: `{"uid":"uid-ann","question_id":` + itoa(q.ID) + `,"answer":"mitochondrion"}`, wantStatus: http.StatusOK, wantOK: true, correct: true},
		{name: "array answer", body: `{"uid":"uid-ann","question_id":` + itoa(q.ID) + `,"answer":["Ribosome"]}`, wantStatus: http.StatusOK, wantOK: true},
		{name: "invalid json", body: `{"uid":`, wantStatus: http.StatusBadRequest},
		{name: "missing answer", body: `{"uid":"uid-ann","question_id":` + itoa(q.ID) + `}`, wantStatus: http.StatusBadRequest},
		{name: "empty answer string", body: `{"uid":"uid-ann","question_id":` + itoa(q.ID) + `,"answer":""}`, wantStatus: http.StatusBadRequest},
		{name: "unknown learner", body: `{"uid":"ghost","question_id":` + itoa(q.ID) + `,"answer":"x"}`, wantStatus: http.StatusNotFound},
		{name: "unknown question", body: `{"uid":"uid-ann","question_id":999,"answer":"x"}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := srv.do(t, http.MethodPost, "/api/answers", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if !tt.wantOK {
				assert.Equal(t, StatusNOK, body["status"])
				assert.NotEmpty(t, body["message"])
				return
			}
			assert.Equal(t, StatusOK, body["status"])
			result := body["result"].(map[string]interface{})
			assert.Equal(t, tt.correct, result["correct"])
			assert.Equal(t, false, result["mastered"])
			assert.Equal(t, "Cellular respiration happens in the mitochondrion.", result["explanation"])
		})
	}
}

func TestStreakEndpoints(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	_, body := srv.do(t, http.MethodGet, "/api/streaks/uid-ann", "", nil)
	assert.Equal(t, StatusOK, body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["questionsAnsweredToday"])
	assert.Equal(t, float64(1), data["questionsNeededToday"])

	rec, body := srv.do(t, http.MethodPost, "/api/streaks/track", `{"uid":"uid-ann"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["currentStreak"])
	assert.Equal(t, float64(1), data["questionsAnsweredToday"])
	assert.Equal(t, true, data["streakMaintained"])

	rec, body = srv.do(t, http.MethodGet, "/api/streaks/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, StatusNOK, body["status"])
}

func TestLeaderboardEndpoints(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	q := srv.question(t, "Mitochondrion", `["Mitochondrion", "Ribosome"]`)
	srv.do(t, http.MethodPost, "/api/answers", `{"uid":"uid-ben","question_id":`+itoa(q.ID)+`,"answer":"Mitochondrion"}`, nil)

	rec, body := srv.do(t, http.MethodGet, "/api/leaderboard?uid=uid-ann&period=all_time", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := body["leaderboard"].(map[string]interface{})
	assert.Equal(t, "all_time", board["period"])
	assert.Equal(t, float64(2), board["user_rank"])
	rankings := board["rankings"].([]interface{})
	require.Len(t, rankings, 2)
	assert.Equal(t, "Ben", rankings[0].(map[string]interface{})["name"])

	rec, body = srv.do(t, http.MethodGet, "/api/leaderboard?uid=uid-ann&period=yearly", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, StatusNOK, body["status"])

	rec, _ = srv.do(t, http.MethodGet, "/api/leaderboard?uid=uid-ann&limit=ten", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = srv.do(t, http.MethodGet, "/api/top-learners/uid-ann", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["totalLearners"])
	assert.Equal(t, float64(2), body["currentLearnerPosition"])
	assert.Equal(t, float64(0), body["currentLearnerScore"])
}

func TestPracticeAndProgressEndpoints(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	q := srv.question(t, "Mitochondrion", `["Mitochondrion", "Ribosome", "Nucleus"]`)

	rec, body := srv.do(t, http.MethodGet, "/api/questions/practice?uid=uid-ann&count=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	questions := body["questions"].([]interface{})
	require.Len(t, questions, 1)
	first := questions[0].(map[string]interface{})
	assert.Len(t, first["options"], 3)
	assert.NotContains(t, first, "answer")

	rec, _ = srv.do(t, http.MethodGet, "/api/questions/practice?uid=uid-ann&subject_id=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	srv.do(t, http.MethodPost, "/api/answers", `{"uid":"uid-ann","question_id":`+itoa(q.ID)+`,"answer":"Nucleus"}`, nil)
	rec, body = srv.do(t, http.MethodGet, "/api/learners/uid-ann/progress", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := body["progress"].(map[string]interface{})
	assert.Equal(t, float64(1), progress["total_attempts"])
	assert.Equal(t, float64(0), progress["correct_attempts"])
}

func TestLearnerAuthentication(t *testing.T) {
	srv := newTestServer(t, serverOptions{verifier: fakeVerifier{"token-ann": "uid-ann"}})

	tests := []struct {
		name   string
		method string
		header string
		path   string
		body   string
		want   int
	}{
		{name: "missing token", path: "/api/streaks/uid-ann", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", path: "/api/streaks/uid-ann", want: http.StatusUnauthorized},
		{name: "other learner", header: "Bearer token-ann", path: "/api/streaks/uid-ben", want: http.StatusForbidden},
		{name: "own uid", header: "Bearer token-ann", path: "/api/streaks/uid-ann", want: http.StatusOK},
		{name: "query uid mismatch", header: "Bearer token-ann", path: "/api/leaderboard?uid=uid-ben", want: http.StatusForbidden},
		{name: "track for another learner", method: http.MethodPost, header: "Bearer token-ann", path: "/api/streaks/track", body: `{"uid":"uid-ben"}`, want: http.StatusForbidden},
		{name: "missing uid on answer", method: http.MethodPost, header: "Bearer token-ann", path: "/api/answers", body: `{"question_id":1,"answer":"A"}`, want: http.StatusBadRequest},
		{name: "missing uid on track", method: http.MethodPost, header: "Bearer token-ann", path: "/api/streaks/track", body: `{}`, want: http.StatusBadRequest},
		{name: "missing uid on leaderboard", header: "Bearer token-ann", path: "/api/leaderboard", want: http.StatusBadRequest},
		{name: "missing uid on practice", header: "Bearer token-ann", path: "/api/questions/practice", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec, body := srv.do(t, method, tt.path, tt.body, headers)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusBadRequest {
				assert.Equal(t, "uid is required", body["message"])
			}
		})
	}
}

func TestAdminEndpoints(t *testing.T) {
	hash, err := security.HashAdminToken(adminToken)
	require.NoError(t, err)
	srv := newTestServer(t, serverOptions{adminHash: hash})

	long := strings.Repeat("y", 25)
	giveaway := srv.question(t, `["`+long+`"]`, `["`+long+`", "a", "b"]`)
	fair := srv.question(t, `["Nucleus"]`, `["Nucleus", "Ribosome"]`)
	auth := map[string]string{HeaderAdminToken: adminToken}

	rec, _ := srv.do(t, http.MethodPost, "/api/admin/questions/auto-reject", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := srv.do(t, http.MethodPost, "/api/admin/questions/auto-reject", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["rejected_count"])
	assert.Contains(t, body["message"], "1 of 2")

	rejected, err := srv.questions.GetQuestionByID(context.Background(), giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	rec, body = srv.do(t, http.MethodPatch, "/api/admin/questions/"+itoa(fair.ID)+"/status", `{"status":"rejected","comment":"duplicate"}`, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	question := body["question"].(map[string]interface{})
	assert.Equal(t, "rejected", question["status"])
	assert.Equal(t, "duplicate", question["comment"])

	rec, _ = srv.do(t, http.MethodPatch, "/api/admin/questions/abc/status", `{"status":"approved"}`, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = srv.do(t, http.MethodPatch, "/api/admin/questions/"+itoa(fair.ID)+"/status", `{"status":"archived"}`, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminDisabledWithoutHash(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	rec, body := srv.do(t, http.MethodPost, "/api/admin/questions/auto-reject", "", map[string]string{HeaderAdminToken: adminToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, StatusNOK, body["status"])
}

func TestRateLimitedAnswers(t *testing.T) {
	limiter := security.NewRateLimiter(1, time.Hour)
	t.Cleanup(limiter.Close)
	srv := newTestServer(t, serverOptions{limiter: limiter})
	q := srv.question(t, "Mitochondrion", `[]`)
	payload := `{"uid":"uid-ann","question_id":` + itoa(q.ID) + `,"answer":"Mitochondrion"}`

	rec, _ := srv.do(t, http.MethodPost, "/api/answers", payload, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := srv.do(t, http.MethodPost, "/api/answers", payload, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, StatusNOK, body["status"])

	// other routes are not limited
	rec, _ = srv.do(t, http.MethodGet, "/api/streaks/uid-ann", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	m := NewMiddleware(nil, nil, nil, logger.NewNop())
	handler := m.Logging(m.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusNOK, body["status"])
	assert.Equal(t, ErrInternalServerError, body["message"])
	assert.Contains(t, body["error"], "boom")
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantError   bool
	}{
		{name: "plain error is upstream", err: errors.New("disk full"), wantStatus: http.StatusInternalServerError, wantMessage: "Internal server error", wantError: true},
		{name: "upstream keeps cause", err: apierr.Upstream("Failed to save streak", errors.New("locked")), wantStatus: http.StatusInternalServerError, wantMessage: "Failed to save streak", wantError: true},
		{name: "validation", err: apierr.Validation("uid is required"), wantStatus: http.StatusBadRequest, wantMessage: "uid is required"},
		{name: "not found", err: apierr.NotFound("learner %s not found", "x"), wantStatus: http.StatusNotFound, wantMessage: "learner x not found"},
		{name: "conflict", err: apierr.Conflict("Streak was updated by another request, please retry", errors.New("stale")), wantStatus: http.StatusConflict, wantMessage: "Streak was updated by another request, please retry", wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithError(rec, logger.NewNop(), tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, StatusNOK, body["status"])
			assert.Equal(t, tt.wantMessage, body["message"])
			_, hasError := body["error"]
			assert.Equal(t, tt.wantError, hasError)
		})
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
