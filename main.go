package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/estateworker/config"
	"sjsage522/estateworker/internal"
	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/internal/server"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/orchestrator"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.HTTPAddr).
		Int("max_pages", cfg.MaxPages).
		Msg("Starting application")

	// Set up context cancelled on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	deps, err := internal.NewDependencies(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer deps.Close()

	// Create crawlers
	crawlers, err := crawler.CreateCrawlers(cfg, deps.Cache, deps.Fetcher, deps.ImageFetcher)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create crawlers")
	}
	if len(crawlers) == 0 {
		log.Fatal().Msg("No crawlers were created")
	}

	log.Info().
		Int("crawler_count", len(crawlers)).
		Msg("Created crawlers")

	orch := orchestrator.New(crawlers, deps.Publisher, cfg.TargetCooldown)
	srv := server.New(orch, server.Options{
		MaxPages:     cfg.MaxPages,
		ImageTimeout: cfg.ImageTimeout,
	})

	if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		return
	}

	// Graceful shutdown
	log.Info().Msg("Shut down gracefully")
}
