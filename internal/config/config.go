package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string
	DatabaseURL  string
	DatabasePath string

	// Connection pool; zero values fall back to the database package defaults
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	LogMode string
	Debug   bool

	// Redis is optional; when set the learner lock is shared between replicas
	RedisAddr string
	LockTTL   time.Duration

	// Auth
	FirebaseProjectID string
	AdminTokenHash    string

	// Sweep report email via Amazon SES
	AWSRegion          string
	SESFromEmail       string
	SESFromName        string
	ReviewReportEmails []string

	// Scoring
	StreakDailyThreshold int
	StreakTimezone       string
	AutoRejectThreshold  float64
	AutoRejectBatchSize  int
	CorrectAnswerPoints  float64

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from the environment (and an optional .env file) with sensible defaults
func Load() *Config {
	_ = godotenv.Load()
	return fromEnv()
}

// LoadFile reads configuration after loading the given env file
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, err
	}
	return fromEnv(), nil
}

func fromEnv() *Config {
	return &Config{
		ServerPort:   getEnv("PORT", "8080"),
		DatabaseType: getEnv("DATABASE_TYPE", "sqlite"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		DatabasePath: getEnv("DB_PATH", "./examquiz.db"),

		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		LogMode: getEnv("LOG_MODE", "dev"),
		Debug:   getEnvBool("DEBUG", false),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		LockTTL:   getEnvDuration("LOCK_TTL", 10*time.Second),

		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
		AdminTokenHash:    getEnv("ADMIN_TOKEN_HASH", ""),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		SESFromName:        getEnv("SES_FROM_NAME", "Exam Quiz"),
		ReviewReportEmails: getEnvList("REVIEW_REPORT_EMAILS"),

		StreakDailyThreshold: getEnvInt("STREAK_DAILY_THRESHOLD", 1),
		StreakTimezone:       getEnv("STREAK_TIMEZONE", "UTC"),
		AutoRejectThreshold:  getEnvFloat("AUTO_REJECT_THRESHOLD", 20),
		AutoRejectBatchSize:  getEnvInt("AUTO_REJECT_BATCH_SIZE", 100),
		CorrectAnswerPoints:  getEnvFloat("CORRECT_ANSWER_POINTS", 1),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// Location returns the time zone streak days are counted in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		log.Printf("config: unknown STREAK_TIMEZONE %q, using UTC", c.StreakTimezone)
		return time.UTC
	}
	return loc
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", key, v, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: %s=%q is not a number, using %v", key, v, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: %s=%q is not a valid duration, using %s", key, v, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
