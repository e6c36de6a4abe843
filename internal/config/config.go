package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// OpenAIAPIKey is the completion credential. An empty value is not a load
	// error: requests are answered with 500 until it is configured.
	OpenAIAPIKey string
	LLMBaseURL   string
	LLMModelName string
	LLMTimeout   time.Duration

	// SearchAPIKey enables citation-backed follow-up answers when set.
	SearchAPIKey   string
	SearchBaseURL  string
	SearchTimeout  time.Duration
	SearchCacheTTL time.Duration
	RedisURL       string

	CatalogPath string
	DBPath      string

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// SearchEnabled reports whether a search credential is configured.
func (c *Config) SearchEnabled() bool {
	return c.SearchAPIKey != ""
}

// CatalogEnabled reports whether a product catalog should be imported.
func (c *Config) CatalogEnabled() bool {
	return c.CatalogPath != ""
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the ones that have a format.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// Walk up to find a project-level .env
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		OpenAIAPIKey:  getEnv("OPENAI_API", ""),
		LLMBaseURL:    strings.TrimRight(getEnv("LLM_BASE_URL", "https://api.openai.com"), "/"),
		LLMModelName:  getEnv("LLM_MODEL", "gpt-4o-mini"),
		SearchAPIKey:  getEnv("SEARCH_API_KEY", ""),
		SearchBaseURL: strings.TrimRight(getEnv("SEARCH_BASE_URL", "https://api.search.brave.com"), "/"),
		RedisURL:      getEnv("REDIS_URL", ""),
		CatalogPath:   getEnv("CATALOG_PATH", ""),
		DBPath:        getEnv("DB_PATH", "./data/routine-advisor.db"),
		APIPort:       getEnv("API_PORT", "8787"),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SearchTimeout, err = getDuration("SEARCH_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SearchCacheTTL, err = getDuration("SEARCH_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	// The catalog database only exists when there is a catalog to import
	if cfg.CatalogEnabled() {
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a time.Duration environment variable.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	return level, nil
}
