// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hitoshi/lostfound/internal/similarity"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort        string
	CORSAllowedOrigin string

	// Logging
	LogLevel string

	// Rate Limit（req/min/user）
	RateLimitGeneral int

	// Suggestion
	MatchMinScore         float64
	MatchDefaultLimit     int
	MatchMaxLimit         int
	MatchPoolLimit        int
	MatchScoreConcurrency int

	// Scoring
	Similarity similarity.Config

	// Auto-match worker
	AutoMatchInterval      time.Duration
	AutoMatchMinScore      float64
	AutoMatchMaxConcurrent int
	AutoMatchBatchSize     int
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、またはスコアの重みが不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)

	cfg.MatchMinScore = getEnvFloat("MATCH_MIN_SCORE", 0.5)
	cfg.MatchDefaultLimit = getEnvInt("MATCH_DEFAULT_LIMIT", 12)
	cfg.MatchMaxLimit = getEnvInt("MATCH_MAX_LIMIT", 50)
	cfg.MatchPoolLimit = getEnvInt("MATCH_POOL_LIMIT", 500)
	cfg.MatchScoreConcurrency = getEnvInt("MATCH_SCORE_CONCURRENCY", 8)

	sim := similarity.DefaultConfig()
	sim.TextWeight = getEnvFloat("MATCH_TEXT_WEIGHT", sim.TextWeight)
	sim.LocationWeight = getEnvFloat("MATCH_LOCATION_WEIGHT", sim.LocationWeight)
	sim.DateWeight = getEnvFloat("MATCH_DATE_WEIGHT", sim.DateWeight)
	sim.DateHalfLifeDays = getEnvFloat("MATCH_DATE_HALF_LIFE_DAYS", sim.DateHalfLifeDays)
	sim.DateWindowDays = getEnvFloat("MATCH_DATE_WINDOW_DAYS", sim.DateWindowDays)
	if err := sim.Validate(); err != nil {
		return nil, fmt.Errorf("invalid similarity config: %w", err)
	}
	cfg.Similarity = sim

	cfg.AutoMatchInterval = getEnvDuration("AUTOMATCH_INTERVAL", 15*time.Minute)
	cfg.AutoMatchMinScore = getEnvFloat("AUTOMATCH_MIN_SCORE", 0.75)
	cfg.AutoMatchMaxConcurrent = getEnvInt("AUTOMATCH_MAX_CONCURRENT", 4)
	cfg.AutoMatchBatchSize = getEnvInt("AUTOMATCH_BATCH_SIZE", 200)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
