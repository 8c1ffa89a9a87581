package ingest

import (
	"errors"
	"fmt"
)

// ErrNoRequests is returned when IngestBulk is called with an empty batch.
// An empty batch is a caller bug, not a zero-result success.
var ErrNoRequests = errors.New("ingest: no requests")

// BatchError is returned when every request in a batch failed. Partial
// failure is not an error: successes are counted and failures reported in
// Result.Failures.
type BatchError struct {
	Failures []Failure
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("ingest: all %d requests failed", len(e.Failures))
}
