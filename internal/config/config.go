package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port            string
	DatabaseURL     string
	RedisURL        string
	AuthUserInfoURL string

	AlphaVantageAPIKey string
	SerperAPIKey       string

	ReportProvider string
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string

	AnalysisWorkers     int
	AnalysisQueueSize   int
	UpstreamTimeoutSecs int
	NewsMaxItems        int

	PendingMaxAgeMins int
	PendingSweepSecs  int

	TelegramBotToken string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AuthUserInfoURL:    strings.TrimSpace(os.Getenv("AUTH_USERINFO_URL")),
		AlphaVantageAPIKey: os.Getenv("ALPHA_VANTAGE_API_KEY"),
		SerperAPIKey:       os.Getenv("SERPER_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.AuthUserInfoURL == "" {
		log.Println("Warning: AUTH_USERINFO_URL not set, authenticated endpoints will reject all callers")
	}
	if cfg.AlphaVantageAPIKey == "" {
		log.Println("Warning: ALPHA_VANTAGE_API_KEY not set, market data fetches will fail")
	}
	if cfg.SerperAPIKey == "" {
		log.Println("Warning: SERPER_API_KEY not set, news fetches will fail")
	}

	cfg.ReportProvider = strings.ToLower(strings.TrimSpace(os.Getenv("REPORT_PROVIDER")))
	if cfg.ReportProvider == "" {
		cfg.ReportProvider = "gemini"
	}
	if cfg.ReportProvider != "gemini" && cfg.ReportProvider != "openai" {
		log.Printf("Warning: unsupported REPORT_PROVIDER=%q, defaulting to gemini", cfg.ReportProvider)
		cfg.ReportProvider = "gemini"
	}

	cfg.GeminiModel = strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.5-pro-preview-03-25"
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.AnalysisWorkers = 2
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnalysisWorkers = n
		}
	}

	cfg.AnalysisQueueSize = 32
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_QUEUE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnalysisQueueSize = n
		}
	}

	cfg.UpstreamTimeoutSecs = 120
	if v := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.UpstreamTimeoutSecs = n
		}
	}

	cfg.NewsMaxItems = 10
	if v := strings.TrimSpace(os.Getenv("NEWS_MAX_ITEMS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NewsMaxItems = n
		}
	}

	cfg.PendingMaxAgeMins = 30
	if v := strings.TrimSpace(os.Getenv("PENDING_MAX_AGE_MINS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PendingMaxAgeMins = n
		}
	}

	// 0 disables the stale-pending sweeper.
	cfg.PendingSweepSecs = 300
	if v := strings.TrimSpace(os.Getenv("PENDING_SWEEP_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.PendingSweepSecs = n
		}
	}

	return cfg
}
