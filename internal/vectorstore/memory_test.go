package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore("bankin_crm_data")
	docs := []Document{
		{ID: "customer:CUST-001", Kind: "customer", Content: "a", Embedding: []float32{1, 0, 0}},
		{ID: "customer:CUST-002", Kind: "customer", Content: "b", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "quote:Q-001", Kind: "quote", Content: "c", Embedding: []float32{0, 1, 0}},
		{ID: "work_history:W-001", Kind: "work_history", Content: "d", Embedding: []float32{0, 0, 1}},
	}
	require.NoError(t, store.Upsert(context.Background(), docs))
	return store
}

func TestMemoryStore_SearchOrdering(t *testing.T) {
	store := seedStore(t)

	results, err := store.SimilaritySearch(context.Background(), []float32{1, 0, 0}, SearchOptions{TopK: 4})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "customer:CUST-001", results[0].ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score, "results must be score-descending")
	}
}

func TestMemoryStore_TopK(t *testing.T) {
	store := seedStore(t)

	results, err := store.SimilaritySearch(context.Background(), []float32{1, 0, 0}, SearchOptions{TopK: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
}

func TestMemoryStore_MinScore(t *testing.T) {
	store := seedStore(t)

	results, err := store.SimilaritySearch(context.Background(), []float32{1, 0, 0}, SearchOptions{TopK: 10, MinScore: 0.9})
	require.NoError(t, err)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.9)
	}
}

func TestMemoryStore_EmptyResultIsValid(t *testing.T) {
	store := seedStore(t)

	results, err := store.SimilaritySearch(context.Background(), []float32{-1, 0, 0}, SearchOptions{TopK: 5, MinScore: 0.99})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_UpsertReplacesByID(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	updated := Document{ID: "customer:CUST-001", Kind: "customer", Content: "updated", Embedding: []float32{1, 0, 0}}
	require.NoError(t, store.Upsert(ctx, []Document{updated}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalDocuments)
	assert.Equal(t, "bankin_crm_data", stats.Collection)

	results, err := store.SimilaritySearch(ctx, []float32{1, 0, 0}, SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "updated", results[0].Content)
}

func TestMemoryStore_StableTies(t *testing.T) {
	store := NewMemoryStore("bankin_crm_data")
	ctx := context.Background()

	// Identical embeddings: insertion order must decide.
	docs := []Document{
		{ID: "customer:A", Kind: "customer", Content: "first", Embedding: []float32{1, 1, 0}},
		{ID: "customer:B", Kind: "customer", Content: "second", Embedding: []float32{1, 1, 0}},
		{ID: "customer:C", Kind: "customer", Content: "third", Embedding: []float32{1, 1, 0}},
	}
	require.NoError(t, store.Upsert(ctx, docs))

	for range 5 {
		results, err := store.SimilaritySearch(ctx, []float32{1, 1, 0}, SearchOptions{TopK: 3})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "customer:A", results[0].ID)
		assert.Equal(t, "customer:B", results[1].ID)
		assert.Equal(t, "customer:C", results[2].ID)
	}
}
