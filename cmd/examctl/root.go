package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"examquiz/internal/config"
	"examquiz/internal/database"
	"examquiz/internal/learnerlock"
	"examquiz/internal/logger"
	"examquiz/internal/repository"
	"examquiz/internal/scoring"
	"examquiz/internal/service"
)

var rootCmd = &cobra.Command{
	Use:          "examctl",
	Short:        "Operator tool for the exam quiz scoring service",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "Load configuration from this .env file instead of ./.env")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(topLearnersCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(hashTokenCmd)
}

// app is the wiring shared by subcommands that touch the database
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	redis  *redis.Client
	locker learnerlock.Locker
}

// openApp loads configuration from --env-file (or the environment) and connects to
// the database with migrations applied.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(cmd.Context()); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, locker: learnerlock.NewLocal()}
	// share the server's lock so CLI writes serialize with live requests
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.locker = learnerlock.NewRedis(a.redis, cfg.LockTTL, log)
	}
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
	a.log.Sync()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("env-file"); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.Load(), nil
}

func (a *app) streakService() *service.StreakService {
	return service.NewStreakService(
		repository.NewLearnerRepository(a.db),
		repository.NewStreakRepository(a.db),
		scoring.NewStreakEngine(a.cfg.StreakDailyThreshold),
		a.locker,
		a.cfg.Location(),
		a.log,
	)
}
