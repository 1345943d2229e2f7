package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Study plan defaults (overridable per user in settings)
	ExamDate             time.Time
	TargetCompletionDate time.Time
	HeatmapStart         time.Time
	HeatmapEnd           time.Time

	// Stats workers
	StatsWorkers int

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		ExamDate:             getEnvAsDateOrDefault("EXAM_DATE", "2026-11-15"),
		TargetCompletionDate: getEnvAsDateOrDefault("TARGET_COMPLETION_DATE", "2026-10-15"),
		HeatmapStart:         getEnvAsDateOrDefault("HEATMAP_START", "2026-01-01"),
		HeatmapEnd:           getEnvAsDateOrDefault("HEATMAP_END", "2026-12-31"),

		StatsWorkers: getEnvAsIntOrDefault("STATS_WORKERS", 5),

		SMTPHost:    getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:    getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:    getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:    getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:    getEnvOrDefault("SMTP_FROM", "noreply@prepboard.app"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDateOrDefault(key, defaultVal string) time.Time {
	val := os.Getenv(key)
	if val == "" {
		val = defaultVal
	}
	d, err := time.Parse("2006-01-02", val)
	if err != nil {
		d, err = time.Parse("2006-01-02", defaultVal)
		if err != nil {
			panic(fmt.Sprintf("invalid default date for %s: %v", key, err))
		}
	}
	return d
}
