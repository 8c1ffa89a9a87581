package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/bankinworks/crmrag/internal/api"
	"github.com/bankinworks/crmrag/internal/api/handlers"
	"github.com/bankinworks/crmrag/internal/cache"
	"github.com/bankinworks/crmrag/internal/config"
	"github.com/bankinworks/crmrag/internal/crm"
	"github.com/bankinworks/crmrag/internal/database"
	"github.com/bankinworks/crmrag/internal/embedding"
	"github.com/bankinworks/crmrag/internal/ingest"
	"github.com/bankinworks/crmrag/internal/llm"
	"github.com/bankinworks/crmrag/internal/queue"
	"github.com/bankinworks/crmrag/internal/rag"
	"github.com/bankinworks/crmrag/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Vector index: pgvector when DATABASE_URL is set, otherwise an
	// in-memory index so the server still runs for local development.
	var store vectorstore.VectorStore
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database unavailable, using in-memory index", "error", err)
		store = vectorstore.NewMemoryStore(cfg.Index.Collection)
	} else {
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			slog.Error("schema bootstrap failed", "error", err)
			os.Exit(1)
		}
		store = vectorstore.NewPgVectorStore(db, cfg.Index.Collection)
	}

	// Redis: response cache + async job transport (both optional).
	var (
		respCache   *cache.Cache
		queueClient *queue.Client
	)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, caching and async ingest disabled", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
		respCache = cache.NewCache(rdb)
		queueClient = queue.NewClient(cfg.Redis)
		defer queueClient.Close()
	}

	gateway := llm.NewGateway(cfg.LLM)
	embedSvc := embedding.NewService(gateway, cfg.LLM.EmbedModel)

	retriever := rag.NewRetriever(store, embedSvc)
	synthesizer := rag.NewSynthesizer(gateway, cfg.LLM.ChatModel)
	querySvc := rag.NewService(retriever, synthesizer, store)

	ingestSvc := ingest.NewService(crm.NewLoader(), embedSvc, store, cfg.Ingest.Concurrency)

	// A typed-nil *queue.Client must not leak into the interface.
	var enqueuer handlers.Enqueuer
	if queueClient != nil {
		enqueuer = queueClient
	}
	router := api.NewRouter(cfg, db, rdb, querySvc, ingestSvc, enqueuer, respCache)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "collection", cfg.Index.Collection)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
