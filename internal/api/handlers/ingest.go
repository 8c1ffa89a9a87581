package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/bankinworks/crmrag/internal/crm"
	"github.com/bankinworks/crmrag/internal/ingest"
	"github.com/bankinworks/crmrag/internal/queue"
)

// Ingestor is the bulk-ingestion surface consumed by the HTTP layer.
type Ingestor interface {
	IngestBulk(ctx context.Context, requests []ingest.Request) (*ingest.Result, error)
}

// Enqueuer hands bulk jobs to the worker process.
type Enqueuer interface {
	EnqueueIngestBulk(payload queue.IngestBulkPayload) error
}

type IngestHandler struct {
	svc      Ingestor
	enqueuer Enqueuer // nil disables the async endpoint
}

func NewIngestHandler(svc Ingestor, enqueuer Enqueuer) *IngestHandler {
	return &IngestHandler{svc: svc, enqueuer: enqueuer}
}

// ingestRequest accepts either the bulk form {"requests": [...]} or the
// original single-source form {"source": ..., "dataType": ...}.
type ingestRequest struct {
	Requests []ingest.Request `json:"requests"`
	Source   *crm.DataSource  `json:"source"`
	DataType crm.DataType     `json:"dataType"`
}

func (r ingestRequest) normalize() ([]ingest.Request, error) {
	if len(r.Requests) > 0 {
		for _, req := range r.Requests {
			if req.Source.Path == "" || req.DataType == "" {
				return nil, errors.New("source と dataType が必要です")
			}
		}
		return r.Requests, nil
	}
	if r.Source == nil || r.Source.Path == "" || r.DataType == "" {
		return nil, errors.New("source と dataType が必要です")
	}
	return []ingest.Request{{Source: *r.Source, DataType: r.DataType}}, nil
}

type ingestResponse struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Total    int                  `json:"total"`
	ByType   map[crm.DataType]int `json:"byType"`
	Failures []ingest.Failure     `json:"failures,omitempty"`
}

func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "リクエスト形式が正しくありません"})
		return
	}

	requests, err := req.normalize()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.svc.IngestBulk(r.Context(), requests)
	if err != nil {
		var batchErr *ingest.BatchError
		switch {
		case errors.Is(err, ingest.ErrNoRequests):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source と dataType が必要です"})
		case errors.As(err, &batchErr):
			writeJSON(w, http.StatusBadGateway, ingestResponse{
				Success:  false,
				Message:  "データ取り込みに失敗しました",
				ByType:   map[crm.DataType]int{},
				Failures: batchErr.Failures,
			})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Success:  true,
		Message:  fmt.Sprintf("%d件のデータを取り込みました", result.Total),
		Total:    result.Total,
		ByType:   result.ByType,
		Failures: result.Failures,
	})
}

func (h *IngestHandler) IngestAsync(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "非同期取り込みは利用できません"})
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "リクエスト形式が正しくありません"})
		return
	}

	requests, err := req.normalize()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	jobID := uuid.NewString()
	if err := h.enqueuer.EnqueueIngestBulk(queue.IngestBulkPayload{JobID: jobID, Requests: requests}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job_id": jobID, "queued": len(requests)})
}
