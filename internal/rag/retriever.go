// Package rag composes the retriever and answer synthesizer into the
// single-turn and multi-turn query paths.
//
// Conversation history is folded into the generation prompt only; the
// retrieval embedding always uses the current query verbatim, so retrieval
// for a given query is deterministic regardless of history.
package rag

import (
	"context"
	"fmt"

	"github.com/bankinworks/crmrag/internal/vectorstore"
)

// Embedder is the embedding capability the retriever consumes.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

const defaultTopK = 5

// Options bound one retrieval: result count and minimum similarity.
type Options struct {
	TopK     int     `json:"topK,omitempty"`
	MinScore float64 `json:"minScore,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	return o
}

type Retriever struct {
	store    vectorstore.VectorStore
	embedder Embedder
}

func NewRetriever(store vectorstore.VectorStore, embedder Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve embeds the query and returns index matches most-similar first,
// filtered by MinScore and truncated to TopK. An empty result is valid.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]vectorstore.SearchResult, error) {
	opts = opts.withDefaults()

	queryVec, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrRetrievalFailed, err)
	}

	results, err := r.store.SimilaritySearch(ctx, queryVec, vectorstore.SearchOptions{
		TopK:     opts.TopK,
		MinScore: opts.MinScore,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %v", ErrRetrievalFailed, err)
	}
	return results, nil
}
