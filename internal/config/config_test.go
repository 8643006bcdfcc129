package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("REPORT_PROVIDER", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("ANALYSIS_WORKERS", "")
	t.Setenv("UPSTREAM_TIMEOUT_SECS", "")
	t.Setenv("NEWS_MAX_ITEMS", "")
	t.Setenv("PENDING_SWEEP_SECS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.ReportProvider != "gemini" {
		t.Fatalf("expected default report provider gemini, got %s", cfg.ReportProvider)
	}
	if cfg.GeminiModel != "gemini-2.5-pro-preview-03-25" {
		t.Fatalf("unexpected default gemini model: %s", cfg.GeminiModel)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("unexpected default openai model: %s", cfg.OpenAIModel)
	}
	if cfg.AnalysisWorkers != 2 || cfg.AnalysisQueueSize != 32 {
		t.Fatalf("unexpected worker defaults: %+v", cfg)
	}
	if cfg.UpstreamTimeoutSecs != 120 || cfg.NewsMaxItems != 10 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg)
	}
	if cfg.PendingMaxAgeMins != 30 || cfg.PendingSweepSecs != 300 {
		t.Fatalf("unexpected sweeper defaults: %+v", cfg)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("REPORT_PROVIDER", "openai")
	t.Setenv("ANALYSIS_WORKERS", "4")
	t.Setenv("PENDING_SWEEP_SECS", "0")

	cfg := Load()
	if cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ReportProvider != "openai" {
		t.Fatalf("expected openai provider, got %s", cfg.ReportProvider)
	}
	if cfg.AnalysisWorkers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.AnalysisWorkers)
	}
	if cfg.PendingSweepSecs != 0 {
		t.Fatalf("expected sweeper disabled, got %d", cfg.PendingSweepSecs)
	}

	t.Setenv("REPORT_PROVIDER", "llama")
	t.Setenv("ANALYSIS_WORKERS", "bad")
	cfg = Load()
	if cfg.ReportProvider != "gemini" {
		t.Fatalf("unsupported provider should fall back to gemini, got %s", cfg.ReportProvider)
	}
	if cfg.AnalysisWorkers != 2 {
		t.Fatalf("invalid worker count should fall back to default, got %d", cfg.AnalysisWorkers)
	}
}
