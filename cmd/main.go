package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "time/tzdata"

	"github.com/bilgisen/newshub/internal/ai"
	"github.com/bilgisen/newshub/internal/api"
	"github.com/bilgisen/newshub/internal/board"
	"github.com/bilgisen/newshub/internal/cache"
	"github.com/bilgisen/newshub/internal/config"
	"github.com/bilgisen/newshub/internal/feed"
	"github.com/bilgisen/newshub/internal/logger"
	"github.com/bilgisen/newshub/internal/metrics"
	"github.com/bilgisen/newshub/internal/middleware"
	"github.com/bilgisen/newshub/internal/resolver"
	"github.com/bilgisen/newshub/internal/storage"
)

func main() {
	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	output := "stdout"
	if cfg.LogFile != "" {
		output = cfg.LogFile
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: output,
		Pretty: cfg.LogPretty,
	}); err != nil {
		panic(err)
	}

	log := logger.Get()
	log.Info().Str("env", cfg.Env).Msg("Starting application...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	categories, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid categories")
	}

	store := newCache(ctx, cfg)
	defer func() {
		log.Info().Msg("Closing cache...")
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing cache")
		}
	}()

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize archive")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid display time zone")
	}
	parser := feed.NewParser(loc)

	sources, err := feed.BuildSources(categories, feed.SourceDeps{
		Fetcher:       feed.NewFetcher(cfg.HTTPTimeout),
		SearchBaseURL: cfg.SearchBaseURL,
		MarketBaseURL: cfg.MarketAPIURL,
		MarketAPIKey:  cfg.MarketAPIKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build sources")
	}

	processor := feed.NewProcessor(parser, categories, sources, feed.ProcessorOptions{
		MaxConcurrency: cfg.MaxConcurrency,
		ShareSeen:      cfg.DedupeAcrossCategories,
		Metrics:        m,
	})

	newsBoard := board.New(store, archive, cfg.CacheTTL)
	newsBoard.Warm(ctx)

	poller := feed.NewPoller(processor, cfg.PollInterval, newsBoard.Publish)
	go poller.Start(ctx)

	var summarizer api.Summarizer
	if cfg.AIApiKey != "" {
		summarizer = ai.NewGeminiClient(cfg.AIApiKey, cfg.AIModel, cfg.AITimeout)
	}

	handlers := api.NewHandlers(api.Options{
		Board:          newsBoard,
		Refresher:      poller,
		Resolver:       resolver.New(cfg.HTTPTimeout, store, cfg.CacheTTL),
		Summarizer:     summarizer,
		ChatURL:        cfg.AIChatURL,
		PromptLanguage: cfg.AIPromptLanguage,
	})

	// Create Fiber app with custom config
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.AITimeout + cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	api.SetupRoutes(app, handlers, api.RouteConfig{
		AccessToken: cfg.AccessToken,
		AdminAPIKey: cfg.AdminAPIKey,
		Gatherer:    reg,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("Server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// newCache connects to Redis when configured and falls back to memory otherwise.
func newCache(ctx context.Context, cfg *config.Config) cache.Store {
	log := logger.Get()
	if cfg.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set, using in-memory cache")
		return cache.NewMemoryClient()
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPrefix)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		return cache.NewMemoryClient()
	}
	return client
}

func newArchive(ctx context.Context, cfg *config.Config) (storage.Archive, error) {
	switch cfg.ArchiveBackend {
	case "fs":
		fs, err := storage.NewStorage(cfg.ArchivePath)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "s3":
		bucket, err := storage.NewS3Archive(ctx, storage.S3Config{
			Endpoint:  cfg.R2Endpoint,
			AccountID: cfg.R2AccountID,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
		})
		if err != nil {
			return nil, err
		}
		return bucket, nil
	case "none", "":
		return nil, nil
	default:
		return nil, errors.New("unknown archive backend " + cfg.ArchiveBackend)
	}
}
