package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Varshith-Kola/PolicyDiff/internal/clock/system"
	"github.com/Varshith-Kola/PolicyDiff/internal/config"
	"github.com/Varshith-Kola/PolicyDiff/internal/differ"
	hashsha256 "github.com/Varshith-Kola/PolicyDiff/internal/hash/sha256"
	"github.com/Varshith-Kola/PolicyDiff/internal/logging"
	"github.com/Varshith-Kola/PolicyDiff/internal/metrics"
	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
	"github.com/Varshith-Kola/PolicyDiff/internal/notify"
	"github.com/Varshith-Kola/PolicyDiff/internal/pipeline"
	"github.com/Varshith-Kola/PolicyDiff/internal/retry"
	"github.com/Varshith-Kola/PolicyDiff/internal/scraper"
	"github.com/Varshith-Kola/PolicyDiff/internal/storage/postgres"
	"github.com/Varshith-Kola/PolicyDiff/internal/summarizer"
)

// application bundles the wired service graph for the CLI commands.
type application struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *postgres.Store
	batch    *pipeline.Batch
	renderer *scraper.Renderer
}

// buildApp loads configuration and wires every subsystem together.
func buildApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics.Init()

	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("db.dsn must be set")
	}
	store, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	retryPolicy := retry.Policy{
		MaxAttempts: cfg.Scraper.MaxRetries,
		BaseDelay:   time.Duration(cfg.Scraper.BackoffInitialMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Scraper.BackoffMaxMs) * time.Millisecond,
		JitterBound: time.Second,
	}

	fetcher := scraper.NewFetcher(scraper.FetcherConfig{
		Timeout:       cfg.ScrapeTimeout(),
		RespectRobots: cfg.Scraper.RespectRobots,
	})

	var (
		renderer     *scraper.Renderer
		pageRenderer scraper.PageFetcher
	)
	if cfg.Headless.Enabled {
		renderer, err = scraper.NewRenderer(scraper.RendererConfig{
			MaxParallel:       cfg.Headless.MaxParallel,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless renderer init failed, continuing without fallback", zap.Error(err))
		} else {
			pageRenderer = renderer
		}
	}

	scr := scraper.New(fetcher, pageRenderer, hashsha256.New(), retryPolicy, logger.Named("scraper"))

	summ := summarizer.New(summarizer.Config{
		APIKey:      cfg.Summarizer.APIKey,
		BaseURL:     cfg.Summarizer.BaseURL,
		Model:       cfg.Summarizer.Model,
		Temperature: cfg.Summarizer.Temperature,
		MaxTokens:   cfg.Summarizer.MaxTokens,
		Timeout:     time.Duration(cfg.Summarizer.TimeoutSeconds) * time.Second,
	}, retryPolicy, logger.Named("summarizer"))

	dispatcher := notify.NewDispatcher(logger.Named("notify"), buildChannels(cfg.Notify)...)

	clock := system.New()
	checker := pipeline.NewChecker(
		store, store, store,
		scr,
		differ.New(differ.DefaultOptions()),
		summ,
		dispatcher,
		clock,
		logger.Named("pipeline"),
	)
	batch := pipeline.NewBatch(checker, store, clock, logger.Named("pipeline"), cfg.Pipeline.MaxConcurrent)

	return &application{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		batch:    batch,
		renderer: renderer,
	}, nil
}

func buildChannels(cfg config.NotifyConfig) []notify.Channel {
	var channels []notify.Channel
	for _, w := range cfg.Webhooks {
		channels = append(channels, notify.NewWebhook(notify.WebhookConfig{
			URL:         w.URL,
			MinSeverity: monitor.CoerceSeverity(w.MinSeverity),
		}))
	}
	for _, to := range cfg.Email.To {
		channels = append(channels, notify.NewEmail(notify.EmailConfig{
			Host:        cfg.Email.Host,
			Port:        cfg.Email.Port,
			Username:    cfg.Email.Username,
			Password:    cfg.Email.Password,
			From:        cfg.Email.From,
			To:          to,
			MinSeverity: monitor.CoerceSeverity(cfg.Email.MinSeverity),
		}))
	}
	return channels
}

// Close releases the app's external resources.
func (a *application) Close() {
	if a.renderer != nil {
		a.renderer.Close()
	}
	a.store.Close()
	_ = a.logger.Sync()
}
