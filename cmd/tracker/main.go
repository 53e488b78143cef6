package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/darkred07/shoe-tracker/internal/browser"
	"github.com/darkred07/shoe-tracker/internal/config"
	"github.com/darkred07/shoe-tracker/internal/dedup"
	"github.com/darkred07/shoe-tracker/internal/extractor"
	"github.com/darkred07/shoe-tracker/internal/fetcher"
	"github.com/darkred07/shoe-tracker/internal/logging"
	"github.com/darkred07/shoe-tracker/internal/notifier"
	"github.com/darkred07/shoe-tracker/internal/ratelimit"
	"github.com/darkred07/shoe-tracker/internal/store"
	"github.com/darkred07/shoe-tracker/internal/tracker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("starting shoe price tracker")

	if !cfg.EmailConfigured() {
		logger.Warn("email not fully configured, alerts will be logged but not mailed")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configStore := store.NewConfigStore(cfg.Tracker.ConfigFile, logger)
	trackerCfg, err := configStore.Load()
	if err != nil {
		logger.Error("failed to load tracked listings", "error", err)
		os.Exit(1)
	}
	logger.Info("using model", "model", trackerCfg.Settings.Model)

	var historyStore store.HistoryStore
	if cfg.Storage.DatabaseURL != "" {
		pg, err := store.NewPostgresHistoryStore(ctx, cfg.Storage.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to connect to history database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		historyStore = pg
	} else {
		historyStore = store.NewFileHistoryStore(cfg.Tracker.HistoryFile, logger)
	}

	history, err := historyStore.Load(ctx)
	if err != nil {
		logger.Error("failed to load price history", "error", err)
		os.Exit(1)
	}

	browserOpts := browser.DefaultOptions()
	browserOpts.Headless = cfg.Browser.Headless
	browserOpts.UserAgent = cfg.Browser.UserAgent
	browserOpts.Timeout = cfg.Browser.NavTimeout

	pageFetcher := fetcher.New(fetcher.Config{
		Browser:         browserOpts,
		SelectorTimeout: cfg.Browser.SelectorTimeout,
		SettleDelay:     cfg.Browser.SettleDelay,
		ScrollDelay:     cfg.Browser.ScrollDelay,
	}, logger)

	gemini, err := extractor.NewGeminiClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		logger.Error("failed to create model client", "error", err)
		os.Exit(1)
	}

	productExtractor := extractor.New(
		gemini,
		trackerCfg.Settings.Model,
		trackerCfg.Settings.ShoeNames,
		cfg.Tracker.MaxHTMLBytes,
		logger,
	)

	checker := tracker.NewChecker(
		pageFetcher,
		productExtractor,
		trackerCfg.Settings.Threshold,
		history,
		logger,
	)

	emailNotifier := notifier.New(ctx, notifier.Config{
		AccessKeyID:     cfg.Email.AccessKeyID,
		SecretAccessKey: cfg.Email.SecretAccessKey,
		Region:          cfg.Email.Region,
		From:            cfg.Email.From,
		To:              cfg.Email.To,
	}, logger)

	var deduper tracker.Deduper = dedup.None{}
	if cfg.Storage.RedisAddr != "" {
		deduper = dedup.NewRedis(cfg.Storage.RedisAddr, cfg.Storage.DedupTTL, logger)
	}

	runner := tracker.NewRunner(
		trackerCfg.URLs,
		checker,
		history,
		historyStore,
		emailNotifier,
		deduper,
		ratelimit.NewFixedDelay(cfg.Tracker.CheckInterval),
		logger,
	)

	if err := runner.Run(ctx); err != nil {
		logger.Error("run interrupted", "error", err)
	}
}
