package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"examquiz/internal/config"
	"examquiz/internal/database"
	"examquiz/internal/handlers"
	"examquiz/internal/learnerlock"
	"examquiz/internal/logger"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
	"examquiz/internal/security"
	"examquiz/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode, cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	log.Info("database connection established", "type", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}

	log.Info("migrations completed successfully")

	// Learner lock: shared through Redis when configured, in-process otherwise
	var locker learnerlock.Locker = learnerlock.NewLocal()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		locker = learnerlock.NewRedis(client, cfg.LockTTL, log)
		log.Info("learner lock backed by redis", "addr", cfg.RedisAddr)
	}

	// Initialize repositories
	learnerRepo := repository.NewLearnerRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	streakRepo := repository.NewStreakRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.ReviewReportEmails, log)
	if err != nil {
		log.Fatal("failed to initialize email service", "error", err)
	}

	streakService := service.NewStreakService(learnerRepo, streakRepo, scoring.NewStreakEngine(cfg.StreakDailyThreshold), locker, cfg.Location(), log)
	answerService := service.NewAnswerService(learnerRepo, questionRepo, resultRepo, streakService, locker, cfg.CorrectAnswerPoints, log)
	leaderboardService := service.NewLeaderboardService(learnerRepo, resultRepo, cfg.Location())
	practiceService := service.NewPracticeService(learnerRepo, questionRepo, resultRepo, log)
	progressService := service.NewProgressService(learnerRepo, resultRepo)
	reviewService := service.NewReviewService(db, scoring.AutoRejectRule{Threshold: cfg.AutoRejectThreshold}, cfg.AutoRejectBatchSize, emailService, log)

	// Authentication
	var verifier security.TokenVerifier
	if cfg.FirebaseProjectID != "" {
		verifier = security.NewFirebaseVerifier(cfg.FirebaseProjectID, security.NewRemoteKeys(security.FirebaseKeysURL, time.Hour))
		log.Info("firebase authentication enabled", "project", cfg.FirebaseProjectID)
	} else {
		log.Warn("FIREBASE_PROJECT_ID not set, learner routes are unauthenticated")
	}
	adminTokens := security.NewAdminTokens(cfg.AdminTokenHash)
	if !adminTokens.Enabled() {
		log.Warn("ADMIN_TOKEN_HASH not set, admin routes are disabled")
	}

	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer limiter.Close()

	// Initialize handlers
	middleware := handlers.NewMiddleware(verifier, adminTokens, limiter, log)
	handler := handlers.NewRouter(handlers.Handlers{
		Practice:    handlers.NewPracticeHandler(answerService, practiceService, progressService, log),
		Streaks:     handlers.NewStreakHandler(streakService, log),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboardService, log),
		Admin:       handlers.NewAdminHandler(reviewService, log),
	}, middleware)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
