package queue

import "github.com/bankinworks/crmrag/internal/ingest"

const TypeIngestBulk = "ingest:bulk"

// IngestBulkPayload carries one bulk-ingestion job. JobID is returned to
// the API caller so results can be matched in the worker logs.
type IngestBulkPayload struct {
	JobID    string           `json:"job_id"`
	Requests []ingest.Request `json:"requests"`
}
