package handlers

import "net/http"

// Handlers groups the JSON handlers mounted by NewRouter
type Handlers struct {
	Practice    *PracticeHandler
	Streaks     *StreakHandler
	Leaderboard *LeaderboardHandler
	Admin       *AdminHandler
}

// NewRouter registers every route and wraps the mux with recovery and request logging
func NewRouter(h Handlers, m *Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondOK(w, nil)
	})

	// Learner routes
	mux.HandleFunc("POST /api/answers", m.RateLimit(m.RequireLearner(h.Practice.SubmitAnswer)))
	mux.HandleFunc("GET /api/questions/practice", m.RequireLearner(h.Practice.PracticeQuestions))
	mux.HandleFunc("GET /api/learners/{uid}/progress", m.RequireLearner(h.Practice.Progress))
	mux.HandleFunc("POST /api/streaks/track", m.RequireLearner(h.Streaks.Track))
	mux.HandleFunc("GET /api/streaks/{uid}", m.RequireLearner(h.Streaks.Info))
	mux.HandleFunc("GET /api/leaderboard", m.RequireLearner(h.Leaderboard.Leaderboard))
	mux.HandleFunc("GET /api/top-learners/{uid}", m.RequireLearner(h.Leaderboard.TopLearners))

	// Admin routes
	mux.HandleFunc("POST /api/admin/questions/auto-reject", m.RequireAdmin(h.Admin.AutoReject))
	mux.HandleFunc("PATCH /api/admin/questions/{id}/status", m.RequireAdmin(h.Admin.SetQuestionStatus))

	return m.Logging(m.Recover(mux))
}
