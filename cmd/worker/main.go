package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/bankinworks/crmrag/internal/config"
	"github.com/bankinworks/crmrag/internal/crm"
	"github.com/bankinworks/crmrag/internal/database"
	"github.com/bankinworks/crmrag/internal/embedding"
	"github.com/bankinworks/crmrag/internal/ingest"
	"github.com/bankinworks/crmrag/internal/llm"
	"github.com/bankinworks/crmrag/internal/queue"
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
	if cfg.Database.URL == "" {
		slog.Error("worker requires DATABASE_URL: queued jobs must land in a shared index")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		slog.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	store := vectorstore.NewPgVectorStore(db, cfg.Index.Collection)
	gateway := llm.NewGateway(cfg.LLM)
	embedSvc := embedding.NewService(gateway, cfg.LLM.EmbedModel)
	ingestSvc := ingest.NewService(crm.NewLoader(), embedSvc, store, cfg.Ingest.Concurrency)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{Concurrency: cfg.Ingest.Concurrency},
	)

	mux := asynq.NewServeMux()
	queue.NewHandlers(ingestSvc).Register(mux)

	slog.Info("starting ingest worker", "redis", cfg.Redis.Addr, "concurrency", cfg.Ingest.Concurrency)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
