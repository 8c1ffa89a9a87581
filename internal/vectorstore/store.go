package vectorstore

import "context"

// Document is one formatted CRM record plus its embedding. ID is
// "<kind>:<recordID>" so re-ingesting the same export updates in place.
type Document struct {
	ID        string
	Kind      string
	Content   string
	Embedding []float32
	Metadata  map[string]interface{}
}

type SearchOptions struct {
	TopK     int
	MinScore float64
}

type SearchResult struct {
	ID       string                 `json:"id"`
	Kind     string                 `json:"kind"`
	Content  string                 `json:"content"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Stats describes the index for the status endpoint.
type Stats struct {
	TotalDocuments int64
	Collection     string
}

type VectorStore interface {
	Upsert(ctx context.Context, docs []Document) error
	// SimilaritySearch returns matches most-similar first. Ties keep the
	// store's insertion order so identical calls return identical results.
	SimilaritySearch(ctx context.Context, query []float32, opts SearchOptions) ([]SearchResult, error)
	Stats(ctx context.Context) (Stats, error)
}
