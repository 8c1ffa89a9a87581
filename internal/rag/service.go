package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/bankinworks/crmrag/internal/vectorstore"
)

// QueryResponse is the answer payload for both query paths.
type QueryResponse struct {
	Answer     string                     `json:"answer"`
	Sources    []vectorstore.SearchResult `json:"sources"`
	Confidence float64                    `json:"confidence"`
}

// Status is the read-only index introspection for /api/status.
type Status struct {
	TotalDocuments int64  `json:"totalDocuments"`
	CollectionName string `json:"collectionName"`
	IsInitialized  bool   `json:"isInitialized"`
}

// Service composes the retriever and synthesizer.
type Service struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	store       vectorstore.VectorStore
}

func NewService(retriever *Retriever, synthesizer *Synthesizer, store vectorstore.VectorStore) *Service {
	return &Service{
		retriever:   retriever,
		synthesizer: synthesizer,
		store:       store,
	}
}

// Query answers a single-turn question.
func (s *Service) Query(ctx context.Context, query string, opts Options) (*QueryResponse, error) {
	return s.QueryConversation(ctx, query, nil, opts)
}

// QueryConversation answers a question in the context of prior turns.
// Input validation happens before any retrieval or generation call.
func (s *Service) QueryConversation(ctx context.Context, query string, history []ConversationTurn, opts Options) (*QueryResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if err := validateHistory(history); err != nil {
		return nil, err
	}

	sources, err := s.retriever.Retrieve(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	answer, err := s.synthesizer.Synthesize(ctx, query, history, sources)
	if err != nil {
		return nil, err
	}

	if sources == nil {
		sources = []vectorstore.SearchResult{}
	}
	return &QueryResponse{
		Answer:     answer,
		Sources:    sources,
		Confidence: Confidence(sources),
	}, nil
}

// Status reports index size and collection name without mutation.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}
	return &Status{
		TotalDocuments: stats.TotalDocuments,
		CollectionName: stats.Collection,
		IsInitialized:  true,
	}, nil
}

func validateHistory(history []ConversationTurn) error {
	for i, turn := range history {
		if turn.Role != "user" && turn.Role != "assistant" {
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidHistory, i, turn.Role)
		}
		if strings.TrimSpace(turn.Content) == "" {
			return fmt.Errorf("%w: turn %d has empty content", ErrInvalidHistory, i)
		}
	}
	return nil
}
