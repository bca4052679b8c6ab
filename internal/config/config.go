package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config collects the runtime settings of the service. Values come from the
// environment, with a .env file loaded first when present.
type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string

	// Ceiling for a single generation call.
	GenerationTimeout time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	MaxFileSize   int
	MaxTextLength int

	// Tasks older than this are removed by the sweeper.
	TaskMaxAge    time.Duration
	SweepInterval time.Duration

	TemplateDir string
	DatabaseURL string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8000"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GenerationTimeout: getDuration("GENERATION_TIMEOUT", 180*time.Second),
		RateLimitRequests: getInt("RATE_LIMIT_REQUESTS", 15),
		RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", time.Hour),
		MaxFileSize:       getInt("MAX_FILE_SIZE", 5*1024*1024),
		MaxTextLength:     getInt("MAX_TEXT_LENGTH", 50000),
		TaskMaxAge:        getDuration("TASK_MAX_AGE", 24*time.Hour),
		SweepInterval:     getDuration("SWEEP_INTERVAL", time.Hour),
		TemplateDir:       getEnv("TEMPLATE_DIR", "templates"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
