// Command loader bulk-loads the sample CRM exports under data/raw into the
// vector index and prints the per-type breakdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/bankinworks/crmrag/internal/config"
	"github.com/bankinworks/crmrag/internal/crm"
	"github.com/bankinworks/crmrag/internal/database"
	"github.com/bankinworks/crmrag/internal/embedding"
	"github.com/bankinworks/crmrag/internal/ingest"
	"github.com/bankinworks/crmrag/internal/llm"
	"github.com/bankinworks/crmrag/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	dataDir := flag.String("data", "data/raw", "directory containing the sample JSON exports")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "設定の読み込みに失敗しました:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "環境変数を確認してください:", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var store vectorstore.VectorStore
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, "データベースに接続できません:", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, "スキーマ作成に失敗しました:", err)
		os.Exit(1)
	}
	store = vectorstore.NewPgVectorStore(db, cfg.Index.Collection)

	gateway := llm.NewGateway(cfg.LLM)
	embedSvc := embedding.NewService(gateway, cfg.LLM.EmbedModel)
	svc := ingest.NewService(crm.NewLoader(), embedSvc, store, cfg.Ingest.Concurrency)

	requests := []ingest.Request{
		{
			Source:   crm.DataSource{Type: crm.SourceTypeJSON, Path: filepath.Join(*dataDir, "sample_customers.json")},
			DataType: crm.DataTypeCustomer,
		},
		{
			Source:   crm.DataSource{Type: crm.SourceTypeJSON, Path: filepath.Join(*dataDir, "sample_quotes.json")},
			DataType: crm.DataTypeQuote,
		},
		{
			Source:   crm.DataSource{Type: crm.SourceTypeJSON, Path: filepath.Join(*dataDir, "sample_work_history.json")},
			DataType: crm.DataTypeWorkHistory,
		},
	}

	fmt.Println("📥 データ取り込み開始...")

	result, err := svc.IngestBulk(ctx, requests)
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌ データ読み込みエラー:", err)
		if result != nil {
			for _, f := range result.Failures {
				fmt.Fprintf(os.Stderr, "  - %s (%s): %s\n", f.Source, f.DataType, f.Reason)
			}
		}
		os.Exit(1)
	}

	fmt.Println("✅ データ取り込み完了！")
	fmt.Printf("📊 合計: %d件のデータを取り込みました\n", result.Total)
	fmt.Println("内訳:")
	fmt.Printf("  - 顧客情報: %d件\n", result.ByType[crm.DataTypeCustomer])
	fmt.Printf("  - 見積情報: %d件\n", result.ByType[crm.DataTypeQuote])
	fmt.Printf("  - 作業履歴: %d件\n", result.ByType[crm.DataTypeWorkHistory])
	for _, f := range result.Failures {
		fmt.Printf("⚠️  スキップ: %s (%s): %s\n", f.Source, f.DataType, f.Reason)
	}
}
