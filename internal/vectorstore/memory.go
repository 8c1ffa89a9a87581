package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process VectorStore used by tests and by the API
// server when no DATABASE_URL is configured. Cosine similarity over a
// plain slice; ties keep insertion order.
type MemoryStore struct {
	mu         sync.RWMutex
	docs       []Document
	byID       map[string]int
	collection string
}

func NewMemoryStore(collection string) *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]int),
		collection: collection,
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if i, ok := s.byID[d.ID]; ok {
			s.docs[i] = d
			continue
		}
		s.byID[d.ID] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	return nil
}

func (s *MemoryStore) SimilaritySearch(ctx context.Context, query []float32, opts SearchOptions) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	for _, d := range s.docs {
		score := cosineSimilarity(query, d.Embedding)
		if score < opts.MinScore {
			continue
		}
		results = append(results, SearchResult{
			ID:       d.ID,
			Kind:     d.Kind,
			Content:  d.Content,
			Score:    score,
			Metadata: d.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{TotalDocuments: int64(len(s.docs)), Collection: s.collection}, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
