package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Database. An empty DatabaseURL keeps the catalogue in memory.
	DatabaseDriver string
	DatabaseURL    string
	MigrateOnStart bool
	SeedFile       string
	// Pictures are served from PicturesDir under the PicturesURL prefix
	PicturesDir string
	PicturesURL string
	// Matching
	MatchesLimit int
	ScoreCutoff  float64
	// Optional suggestions from a chat model when nothing matches
	OpenAIAPIKey      string
	Model             string
	SuggestPromptFile string
	// Client
	ChatURL     string
	DialTimeout time.Duration
	// Logging
	LogLevel  string
	LogFormat string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:              getEnvDefault("PORT", "8080"),
		AllowedOrigin:     getEnvDefault("ALLOWED_ORIGIN", "*"),
		DatabaseDriver:    getEnvDefault("DB_DRIVER", "sqlite3"),
		DatabaseURL:       os.Getenv("DB_URL"),
		MigrateOnStart:    getEnvBoolDefault("DB_MIGRATE", true),
		SeedFile:          os.Getenv("SEED_FILE"),
		PicturesDir:       getEnvDefault("PICTURES_DIR", "./images/db"),
		PicturesURL:       getEnvDefault("PICTURES_URL", "/images/db/"),
		MatchesLimit:      getEnvIntDefault("MATCHES_LIMIT", 10),
		ScoreCutoff:       getEnvFloatDefault("SCORE_CUTOFF", 0.8),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		Model:             getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		SuggestPromptFile: getEnvDefault("SUGGEST_PROMPT_FILE", "./prompts/suggest.yaml"),
		ChatURL:           getEnvDefault("CHAT_URL", "ws://localhost:8080/ws"),
		DialTimeout:       getEnvDurationDefault("DIAL_TIMEOUT", 10*time.Second),
		LogLevel:          getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvDefault("LOG_FORMAT", "console"),
	}
	if !strings.HasSuffix(cfg.PicturesURL, "/") {
		cfg.PicturesURL += "/"
	}
	return cfg
}

// SuggestionsEnabled reports whether an API key for the suggester is set.
func (c Config) SuggestionsEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil && n > 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, using default")
	}
	return def
}

func getEnvFloatDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid number, using default")
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err == nil && d > 0 {
			return d
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
