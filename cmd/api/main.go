package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"routine-advisor/internal/config"
	"routine-advisor/internal/http"
	"routine-advisor/internal/llm"
	"routine-advisor/internal/render"
	"routine-advisor/internal/search"
	"routine-advisor/internal/service"
	"routine-advisor/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Completion client; left nil without a credential so requests answer 500
	var completion service.CompletionClient
	if cfg.OpenAIAPIKey != "" {
		completion = llm.NewClient(cfg.LLMBaseURL, cfg.OpenAIAPIKey, cfg.LLMModelName, cfg.LLMTimeout)
		slog.Info("Completion client configured", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	} else {
		slog.Warn("OPENAI_API not set, routine requests will fail until it is configured")
	}

	searcher, closeSearch := newSearcher(cfg)
	defer closeSearch()

	deps := &http.Deps{
		RoutineService: service.NewRoutineService(completion, searcher),
		Renderer:       render.NewMarkdownRenderer(),
	}

	if cfg.CatalogEnabled() {
		db, products, err := openCatalog(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to load product catalog: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()
		deps.Products = products
	}

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           http.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LLMTimeout + cfg.SearchTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr, "path", http.RoutinePath)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}

// newSearcher builds the optional web search client, wrapped in a Redis cache when REDIS_URL is set.
// It returns a nil searcher when search is not configured.
func newSearcher(cfg *config.Config) (service.WebSearcher, func()) {
	noop := func() {}
	if !cfg.SearchEnabled() {
		slog.Info("Search not configured, chat requests replay the full history")
		return nil, noop
	}

	client := search.NewClient(cfg.SearchBaseURL, cfg.SearchAPIKey, cfg.SearchTimeout)
	slog.Info("Search client configured", "base_url", cfg.SearchBaseURL, "timeout", cfg.SearchTimeout)

	if cfg.RedisURL == "" {
		return client, noop
	}

	cache, err := search.NewRedisCache(cfg.RedisURL, cfg.SearchCacheTTL)
	if err != nil {
		slog.Warn("Search cache unavailable, searching without it", "error", err)
		return client, noop
	}
	slog.Info("Search cache enabled", "ttl", cfg.SearchCacheTTL)

	return search.NewCachedSearcher(client, cache), func() {
		_ = cache.Close()
	}
}

// openCatalog opens the catalog database and imports CATALOG_PATH into it.
func openCatalog(ctx context.Context, cfg *config.Config) (*sql.DB, storage.ProductStore, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	repo := storage.NewProductRepo(db)
	n, err := storage.ImportCatalogFile(ctx, repo, cfg.CatalogPath)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	slog.Info("Product catalog imported", "path", cfg.CatalogPath, "db", cfg.DBPath, "imported", n, "total", total)

	return db, repo, nil
}
