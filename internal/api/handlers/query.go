package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bankinworks/crmrag/internal/cache"
	"github.com/bankinworks/crmrag/internal/rag"
)

// QueryService is the query surface consumed by the HTTP layer.
type QueryService interface {
	Query(ctx context.Context, query string, opts rag.Options) (*rag.QueryResponse, error)
	QueryConversation(ctx context.Context, query string, history []rag.ConversationTurn, opts rag.Options) (*rag.QueryResponse, error)
	Status(ctx context.Context) (*rag.Status, error)
}

const queryCacheTTL = 5 * time.Minute

type QueryHandler struct {
	svc   QueryService
	cache *cache.Cache // nil disables response caching
}

func NewQueryHandler(svc QueryService, c *cache.Cache) *QueryHandler {
	return &QueryHandler{svc: svc, cache: c}
}

type queryRequest struct {
	Query   string      `json:"query"`
	Options rag.Options `json:"options"`
}

type conversationRequest struct {
	Query   string          `json:"query"`
	History json.RawMessage `json:"history"`
	Options rag.Options     `json:"options"`
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "リクエスト形式が正しくありません"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "クエリが指定されていません"})
		return
	}

	cacheKey := queryCacheKey(req)
	if h.cache != nil {
		var cached rag.QueryResponse
		if err := h.cache.Get(r.Context(), cacheKey, &cached); err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		}
	}

	resp, err := h.svc.Query(r.Context(), req.Query, req.Options)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, resp, queryCacheTTL)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *QueryHandler) QueryConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "リクエスト形式が正しくありません"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "クエリが指定されていません"})
		return
	}

	// History must be a JSON array of turns; anything else is rejected
	// before the service runs retrieval.
	var history []rag.ConversationTurn
	if len(req.History) > 0 && string(req.History) != "null" {
		if err := json.Unmarshal(req.History, &history); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "会話履歴が正しい形式ではありません"})
			return
		}
	}

	resp, err := h.svc.QueryConversation(r.Context(), req.Query, history, req.Options)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *QueryHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "クエリが指定されていません"})
	case errors.Is(err, rag.ErrInvalidHistory):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "会話履歴が正しい形式ではありません"})
	case errors.Is(err, rag.ErrRetrievalFailed), errors.Is(err, rag.ErrGenerationFailed):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func queryCacheKey(req queryRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%g", req.Query, req.Options.TopK, req.Options.MinScore)))
	return fmt.Sprintf("query:%x", sum[:16])
}
