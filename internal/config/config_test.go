package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STREAK_DAILY_THRESHOLD", "")
	t.Setenv("AUTO_REJECT_BATCH_SIZE", "")
	t.Setenv("REVIEW_REPORT_EMAILS", "")

	cfg := fromEnv()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 1, cfg.StreakDailyThreshold)
	assert.Equal(t, 20.0, cfg.AutoRejectThreshold)
	assert.Equal(t, 100, cfg.AutoRejectBatchSize)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
	assert.Nil(t, cfg.ReviewReportEmails)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STREAK_DAILY_THRESHOLD", "3")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("REVIEW_REPORT_EMAILS", "a@example.com, ,b@example.com")
	t.Setenv("AUTO_REJECT_THRESHOLD", "not-a-number")
	t.Setenv("DB_MAX_OPEN_CONNS", "60")
	t.Setenv("DB_MAX_IDLE_CONNS", "12")

	cfg := fromEnv()

	assert.Equal(t, 3, cfg.StreakDailyThreshold)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.ReviewReportEmails)
	assert.Equal(t, 20.0, cfg.AutoRejectThreshold)
	assert.Equal(t, 60, cfg.DBMaxOpenConns)
	assert.Equal(t, 12, cfg.DBMaxIdleConns)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{StreakTimezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.StreakTimezone = "Africa/Johannesburg"
	assert.Equal(t, "Africa/Johannesburg", cfg.Location().String())
}
