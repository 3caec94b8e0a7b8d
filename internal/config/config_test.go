package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
scraper:
  timeout_seconds: 45
  max_retries: 5
  backoff_initial_ms: 100
  backoff_max_ms: 500
  respect_robots: true
headless:
  enabled: true
  max_parallel: 3
  nav_timeout_seconds: 30
summarizer:
  api_key: sk-test
  model: gpt-4o
  max_tokens: 2000
notify:
  webhooks:
    - url: https://hooks.slack.com/services/T0/B0/x
      min_severity: concerning
  email:
    host: smtp.example.com
    port: 587
    username: alerts
    password: hunter2
    from: alerts@example.com
    to: ["legal@example.com"]
db:
  dsn: postgres://localhost/policydiff
pipeline:
  max_concurrent: 8
  serve_interval_minutes: 15
ops:
  port: 9191
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scraper.TimeoutSeconds != 45 || !cfg.Scraper.RespectRobots {
		t.Fatalf("expected scraper overrides to apply: %+v", cfg.Scraper)
	}
	if cfg.Summarizer.APIKey != "sk-test" || cfg.Summarizer.Model != "gpt-4o" {
		t.Fatalf("expected summarizer overrides to apply: %+v", cfg.Summarizer)
	}
	if len(cfg.Notify.Webhooks) != 1 || cfg.Notify.Webhooks[0].MinSeverity != "concerning" {
		t.Fatalf("expected webhook channel to load: %+v", cfg.Notify.Webhooks)
	}
	if len(cfg.Notify.Email.To) != 1 || cfg.Notify.Email.To[0] != "legal@example.com" {
		t.Fatalf("expected email recipients to load: %+v", cfg.Notify.Email)
	}
	if cfg.Pipeline.MaxConcurrent != 8 {
		t.Fatalf("expected pipeline.max_concurrent 8, got %d", cfg.Pipeline.MaxConcurrent)
	}
	if cfg.Ops.Port != 9191 || cfg.Logging.Development {
		t.Fatalf("expected ops/logging overrides to apply")
	}
	if got := cfg.ScrapeTimeout(); got != 45*time.Second {
		t.Fatalf("expected scrape timeout 45s, got %v", got)
	}
	if got := cfg.ServeInterval(); got != 15*time.Minute {
		t.Fatalf("expected serve interval 15m, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scraper.TimeoutSeconds != 30 || cfg.Scraper.MaxRetries != 3 {
		t.Fatalf("unexpected scraper defaults: %+v", cfg.Scraper)
	}
	if cfg.Summarizer.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected summarizer default model: %q", cfg.Summarizer.Model)
	}
	if cfg.Pipeline.MaxConcurrent != 5 || cfg.Pipeline.DefaultIntervalHours != 24 {
		t.Fatalf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Scraper:  ScraperConfig{TimeoutSeconds: 30, MaxRetries: 3},
		Pipeline: PipelineConfig{MaxConcurrent: 5},
		Ops:      OpsConfig{Port: 9090},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.Scraper.TimeoutSeconds = 0
				return c
			}(),
			want: "scraper.timeout_seconds",
		},
		{
			name: "invalid retries",
			cfg: func() Config {
				c := base
				c.Scraper.MaxRetries = 0
				return c
			}(),
			want: "scraper.max_retries",
		},
		{
			name: "headless missing max parallel",
			cfg: func() Config {
				c := base
				c.Headless.Enabled = true
				c.Headless.MaxParallel = 0
				return c
			}(),
			want: "headless.max_parallel",
		},
		{
			name: "invalid concurrency",
			cfg: func() Config {
				c := base
				c.Pipeline.MaxConcurrent = 0
				return c
			}(),
			want: "pipeline.max_concurrent",
		},
		{
			name: "webhook without url",
			cfg: func() Config {
				c := base
				c.Notify.Webhooks = []WebhookConfig{{MinSeverity: "concerning"}}
				return c
			}(),
			want: "notify.webhooks[0].url",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
