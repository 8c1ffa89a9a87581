package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/bankinworks/crmrag/internal/ingest"
)

// Handlers executes queued ingestion jobs in the worker process.
type Handlers struct {
	ingestSvc *ingest.Service
}

func NewHandlers(ingestSvc *ingest.Service) *Handlers {
	return &Handlers{ingestSvc: ingestSvc}
}

func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeIngestBulk, h.HandleIngestBulk)
}

func (h *Handlers) HandleIngestBulk(ctx context.Context, t *asynq.Task) error {
	var payload IngestBulkPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	result, err := h.ingestSvc.IngestBulk(ctx, payload.Requests)
	if err != nil {
		var batchErr *ingest.BatchError
		if errors.As(err, &batchErr) {
			// Nothing succeeded; retrying won't fix bad sources.
			slog.Error("ingest job failed entirely", "jobId", payload.JobID, "failures", len(batchErr.Failures))
			return nil
		}
		return fmt.Errorf("ingest job %s: %w", payload.JobID, err)
	}

	slog.Info("ingest job completed",
		"jobId", payload.JobID,
		"total", result.Total,
		"byType", result.ByType,
		"failures", len(result.Failures),
	)
	return nil
}
