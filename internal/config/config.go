package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration for the signalpost service.
type Config struct {
	ListenAddr string
	StorePath  string
	LogLevel   string

	LLMAPIKey      string
	LLMModel       string
	LLMBaseURL     string
	LLMTemperature float64
	LLMMaxTokens   int

	ShortlistThreshold float64
	ShortlistMax       int
	MaxPostsPerDay     int
	SanitizeMaxChars   int
	HardCharLimit      int
	StyleMinChars      int
	StyleMaxChars      int

	RetryMaxAttempts int
	RetryBackoffBase time.Duration

	Feeds       []string
	Subreddits  []string
	ArxivQuery  string
	AIKeywords  []string

	PosterAPIKey       string
	PosterAPISecret    string
	PosterAccessToken  string
	PosterAccessSecret string
}

// FromEnv creates a configuration instance sourced from environment variables.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr: getEnv("SIGNALPOST_LISTEN_ADDR", ":8080"),
		StorePath:  getEnv("SIGNALPOST_STORE_PATH", "data/signalpost.db"),
		LogLevel:   getEnv("SIGNALPOST_LOG_LEVEL", "info"),

		LLMAPIKey:      getEnv("SIGNALPOST_LLM_API_KEY", ""),
		LLMModel:       getEnv("SIGNALPOST_LLM_MODEL", "gpt-4o-mini"),
		LLMBaseURL:     getEnv("SIGNALPOST_LLM_BASE_URL", ""),
		LLMTemperature: 0.7,
		LLMMaxTokens:   1024,

		ShortlistThreshold: 60,
		ShortlistMax:       10,
		MaxPostsPerDay:     2,
		SanitizeMaxChars:   2000,
		HardCharLimit:      4000,
		StyleMinChars:      200,
		StyleMaxChars:      600,

		RetryMaxAttempts: 3,
		RetryBackoffBase: 2 * time.Second,

		Feeds:      splitList(os.Getenv("SIGNALPOST_FEEDS")),
		Subreddits: splitList(os.Getenv("SIGNALPOST_SUBREDDITS")),
		ArxivQuery: getEnv("SIGNALPOST_ARXIV_QUERY", ""),
		AIKeywords: splitList(os.Getenv("SIGNALPOST_KEYWORDS")),

		PosterAPIKey:       getEnv("X_API_KEY", ""),
		PosterAPISecret:    getEnv("X_API_KEY_SECRET", ""),
		PosterAccessToken:  getEnv("X_ACCESS_TOKEN", ""),
		PosterAccessSecret: getEnv("X_ACCESS_TOKEN_SECRET", ""),
	}

	if threshold := os.Getenv("SIGNALPOST_SHORTLIST_THRESHOLD"); threshold != "" {
		if _, err := fmt.Sscanf(threshold, "%f", &cfg.ShortlistThreshold); err != nil {
			return Config{}, fmt.Errorf("parse SIGNALPOST_SHORTLIST_THRESHOLD: %w", err)
		}
	}

	if max := os.Getenv("SIGNALPOST_SHORTLIST_MAX"); max != "" {
		if _, err := fmt.Sscanf(max, "%d", &cfg.ShortlistMax); err != nil {
			return Config{}, fmt.Errorf("parse SIGNALPOST_SHORTLIST_MAX: %w", err)
		}
	}

	if perDay := os.Getenv("SIGNALPOST_MAX_POSTS_PER_DAY"); perDay != "" {
		if _, err := fmt.Sscanf(perDay, "%d", &cfg.MaxPostsPerDay); err != nil {
			return Config{}, fmt.Errorf("parse SIGNALPOST_MAX_POSTS_PER_DAY: %w", err)
		}
	}

	if temp := os.Getenv("SIGNALPOST_LLM_TEMPERATURE"); temp != "" {
		if _, err := fmt.Sscanf(temp, "%f", &cfg.LLMTemperature); err != nil {
			return Config{}, fmt.Errorf("parse SIGNALPOST_LLM_TEMPERATURE: %w", err)
		}
	}

	if tokens := os.Getenv("SIGNALPOST_LLM_MAX_TOKENS"); tokens != "" {
		if _, err := fmt.Sscanf(tokens, "%d", &cfg.LLMMaxTokens); err != nil {
			return Config{}, fmt.Errorf("parse SIGNALPOST_LLM_MAX_TOKENS: %w", err)
		}
	}

	if attempts := os.Getenv("SIGNALPOST_RETRY_MAX_ATTEMPTS"); attempts != "" {
		if _, err := fmt.Sscanf(attempts, "%d", &cfg.RetryMaxAttempts); err != nil {
			return Config{}, fmt.Errorf("parse SIGNALPOST_RETRY_MAX_ATTEMPTS: %w", err)
		}
	}

	if backoff := os.Getenv("SIGNALPOST_RETRY_BACKOFF_S"); backoff != "" {
		var seconds int
		if _, err := fmt.Sscanf(backoff, "%d", &seconds); err != nil {
			return Config{}, fmt.Errorf("parse SIGNALPOST_RETRY_BACKOFF_S: %w", err)
		}
		cfg.RetryBackoffBase = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
