package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"ogresolver/internal/api"
	"ogresolver/internal/api/handler"
	"ogresolver/internal/config"
	"ogresolver/internal/fetch"
	"ogresolver/internal/oembed"
	"ogresolver/internal/redirect"
	"ogresolver/internal/resolver"
	"ogresolver/internal/scraper"
	"ogresolver/internal/storage"
	"ogresolver/internal/twitter"
)

func main() {
	configPath := flag.String("config", "./configs", "directory containing config.yaml")
	flag.Parse()

	// --- Configuration Loading ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warn("Invalid log_level, falling back to info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	log.WithFields(logrus.Fields{
		"addr":          cfg.Server.Addr,
		"cache_backend": cfg.Cache.Backend,
		"cache_path":    cfg.Cache.Path,
		"platform_api":  cfg.Twitter.BearerToken != "",
		"render":        cfg.Render.Enabled,
	}).Info("Configuration loaded successfully")

	// Create context that listens for interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize Components ---
	log.Info("Initializing components...")

	cache, closeCache, err := newCache(ctx, cfg.Cache, log)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer func() {
		log.Info("Closing cache...")
		if err := closeCache(); err != nil {
			log.WithError(err).Error("Error closing cache")
		}
	}()

	fetcher := fetch.NewFetcher(cfg.Fetch, nil, log)
	shortLinks := redirect.NewResolver(fetcher, cfg.Redirect.MaxHops, log)
	oembedClient := oembed.NewClient(cfg.OEmbed.Endpoint, cfg.Fetch.UserAgent, fetcher, shortLinks, log)
	twitterClient := twitter.NewClient(cfg.Twitter, fetcher, log)

	strategies := []resolver.Strategy{
		resolver.PlatformStrategy(twitterClient),
		resolver.HTMLMetaStrategy(fetcher),
		resolver.OEmbedStrategy(oembedClient),
	}
	if cfg.Render.Enabled {
		strategies = append(strategies, resolver.RenderedPageStrategy(scraper.NewRodRenderer(cfg.Render.Timeout, log)))
	}
	svc := resolver.NewService(cache, strategies, cfg.Resolver, log)

	router := api.NewRouter(handler.NewPreviewHandler(svc, log), handler.NewHealthHandler(log), log)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// --- Application Startup ---
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	// --- Wait for Shutdown Signal ---
	<-ctx.Done()

	// --- Graceful Shutdown ---
	log.Info("Shutting down ogresolver...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown error")
	}

	log.Info("ogresolver shut down gracefully.")
}

// newCache builds the configured cache. The returned close function
// releases any on-disk resources.
func newCache(ctx context.Context, cfg config.CacheConfig, log logrus.FieldLogger) (storage.Cache, func() error, error) {
	front, err := storage.NewMemoryCache(cfg.MemoryEntries, cfg.TTL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Backend == "memory" {
		return front, func() error { return nil }, nil
	}

	db, err := storage.NewBadgerCache(cfg.Path, cfg.TTL, log)
	if err != nil {
		return nil, nil, err
	}
	go db.RunGC(ctx, cfg.GCInterval)

	return storage.NewTieredCache(front, db), db.Close, nil
}
