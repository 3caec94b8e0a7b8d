// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Scraper    ScraperConfig    `mapstructure:"scraper"`
	Headless   HeadlessConfig   `mapstructure:"headless"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	DB         DBConfig         `mapstructure:"db"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Ops        OpsConfig        `mapstructure:"ops"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ScraperConfig governs the primary HTTP fetch tier.
type ScraperConfig struct {
	TimeoutSeconds   int  `mapstructure:"timeout_seconds"`
	MaxRetries       int  `mapstructure:"max_retries"`
	BackoffInitialMs int  `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int  `mapstructure:"backoff_max_ms"`
	RespectRobots    bool `mapstructure:"respect_robots"`
}

// HeadlessConfig configures the headless rendering fallback.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// SummarizerConfig configures the LLM analysis client. An empty APIKey
// disables the remote call and uses the local fallback only.
type SummarizerConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// WebhookConfig defines one outbound webhook channel.
type WebhookConfig struct {
	URL         string `mapstructure:"url"`
	MinSeverity string `mapstructure:"min_severity"`
}

// EmailConfig defines the SMTP alert channel.
type EmailConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	From        string   `mapstructure:"from"`
	To          []string `mapstructure:"to"`
	MinSeverity string   `mapstructure:"min_severity"`
}

// NotifyConfig lists the configured alert channels.
type NotifyConfig struct {
	Webhooks []WebhookConfig `mapstructure:"webhooks"`
	Email    EmailConfig     `mapstructure:"email"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// PipelineConfig governs batch check behavior and scheduling.
type PipelineConfig struct {
	MaxConcurrent        int `mapstructure:"max_concurrent"`
	DefaultIntervalHours int `mapstructure:"default_interval_hours"`
	ServeIntervalMinutes int `mapstructure:"serve_interval_minutes"`
}

// OpsConfig configures the operational HTTP listener (health + metrics).
type OpsConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POLICYDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.backoff_initial_ms", 1000)
	v.SetDefault("scraper.backoff_max_ms", 10000)
	v.SetDefault("scraper.respect_robots", false)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("summarizer.model", "gpt-4o-mini")
	v.SetDefault("summarizer.temperature", 0.3)
	v.SetDefault("summarizer.max_tokens", 1000)
	v.SetDefault("summarizer.timeout_seconds", 60)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("pipeline.max_concurrent", 5)
	v.SetDefault("pipeline.default_interval_hours", 24)
	v.SetDefault("pipeline.serve_interval_minutes", 60)
	v.SetDefault("ops.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.MaxRetries <= 0 {
		return fmt.Errorf("scraper.max_retries must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Pipeline.MaxConcurrent <= 0 {
		return fmt.Errorf("pipeline.max_concurrent must be > 0")
	}
	if c.Ops.Port <= 0 {
		return fmt.Errorf("ops.port must be > 0")
	}
	for i, w := range c.Notify.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("notify.webhooks[%d].url must be set", i)
		}
	}
	return nil
}

// ScrapeTimeout converts the scraper timeout knob to a duration.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// ServeInterval converts the scheduler interval knob to a duration.
func (c Config) ServeInterval() time.Duration {
	return time.Duration(c.Pipeline.ServeIntervalMinutes) * time.Minute
}
