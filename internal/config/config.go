package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	// Scheduling
	DesiredRetention    float64
	MinIntervalDays     int
	MaxIntervalDays     int
	RelearnIntervalDays int
	GraduatingReps      int
	RelearnGraduateReps int
	DisableFuzz         bool

	// Selection
	CandidateLimit    int
	PhrasingLimit     int
	UrgencyDelta      float64
	RecentInteraction int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:     envOr("ADDR", ":8080"),
		DBPath:   envOr("DB_PATH", "file:scry.db"),
		LogLevel: envOr("LOG_LEVEL", "INFO"),

		DesiredRetention:    envFloatOr("DESIRED_RETENTION", 0.9),
		MinIntervalDays:     envIntOr("MIN_INTERVAL_DAYS", 1),
		MaxIntervalDays:     envIntOr("MAX_INTERVAL_DAYS", 365),
		RelearnIntervalDays: envIntOr("RELEARN_INTERVAL_DAYS", 1),
		GraduatingReps:      envIntOr("GRADUATING_REPS", 2),
		RelearnGraduateReps: envIntOr("RELEARN_GRADUATE_REPS", 1),
		DisableFuzz:         envBoolOr("DISABLE_FUZZ", false),

		CandidateLimit:    envIntOr("CANDIDATE_LIMIT", 25),
		PhrasingLimit:     envIntOr("PHRASING_LIMIT", 50),
		UrgencyDelta:      envFloatOr("URGENCY_DELTA", 0.05),
		RecentInteraction: envIntOr("RECENT_INTERACTION_LIMIT", 5),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}
