package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type PgVectorStore struct {
	db         *pgxpool.Pool
	collection string
}

func NewPgVectorStore(db *pgxpool.Pool, collection string) *PgVectorStore {
	return &PgVectorStore{db: db, collection: collection}
}

func (s *PgVectorStore) Upsert(ctx context.Context, docs []Document) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range docs {
		embedding := pgvector.NewVector(d.Embedding)

		_, err := tx.Exec(ctx,
			`INSERT INTO crm_documents (id, kind, content, embedding, metadata)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET kind = $2, content = $3, embedding = $4, metadata = $5`,
			d.ID, d.Kind, d.Content, embedding, d.Metadata,
		)
		if err != nil {
			return fmt.Errorf("upsert document %s: %w", d.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgVectorStore) SimilaritySearch(ctx context.Context, query []float32, opts SearchOptions) ([]SearchResult, error) {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}

	embedding := pgvector.NewVector(query)

	rows, err := s.db.Query(ctx,
		`SELECT id, kind, content, metadata,
		        1 - (embedding <=> $1) AS score
		 FROM crm_documents
		 ORDER BY embedding <=> $1, id
		 LIMIT $2`,
		embedding, opts.TopK,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Kind, &r.Content, &r.Metadata, &r.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if r.Score < opts.MinScore {
			continue
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *PgVectorStore) Stats(ctx context.Context) (Stats, error) {
	var count int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM crm_documents").Scan(&count); err != nil {
		return Stats{}, fmt.Errorf("count documents: %w", err)
	}
	return Stats{TotalDocuments: count, Collection: s.collection}, nil
}
