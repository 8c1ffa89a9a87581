// Package ingest orchestrates bulk loading of CRM sources into the vector
// index: load, validate, format, embed, upsert, with per-request and
// per-record failure isolation.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/bankinworks/crmrag/internal/crm"
	"github.com/bankinworks/crmrag/internal/vectorstore"
)

// Embedder is the embedding capability consumed per formatted record.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Loader reads one declared source and returns its raw records.
type Loader interface {
	Load(ctx context.Context, src crm.DataSource) ([]json.RawMessage, error)
}

// Request pairs one data source with the record kind it contains.
type Request struct {
	Source   crm.DataSource `json:"source"`
	DataType crm.DataType   `json:"dataType"`
}

// Failure describes one skipped request or record.
type Failure struct {
	Source   string       `json:"source"`
	DataType crm.DataType `json:"dataType"`
	RecordID string       `json:"recordId,omitempty"`
	Reason   string       `json:"reason"`
}

// Result aggregates a batch. Total equals the sum of ByType and counts only
// records actually upserted.
type Result struct {
	Total    int                  `json:"total"`
	ByType   map[crm.DataType]int `json:"byType"`
	Failures []Failure            `json:"failures,omitempty"`
}

type Service struct {
	loader      Loader
	embedder    Embedder
	store       vectorstore.VectorStore
	concurrency int
}

func NewService(loader Loader, embedder Embedder, store vectorstore.VectorStore, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		loader:      loader,
		embedder:    embedder,
		store:       store,
		concurrency: concurrency,
	}
}

// IngestBulk processes requests independently on a bounded worker pool.
// One bad source never aborts the batch; a bad record never aborts its
// request. The returned error is non-nil only for an empty batch, a fully
// failed batch, or cancellation — in the last two cases the partial Result
// is still returned.
func (s *Service) IngestBulk(ctx context.Context, requests []Request) (*Result, error) {
	if len(requests) == 0 {
		return nil, ErrNoRequests
	}

	pool, err := ants.NewPool(s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = &Result{ByType: make(map[crm.DataType]int)}
		failed = make([]bool, len(requests))
	)

	for i, req := range requests {
		if ctx.Err() != nil {
			mu.Lock()
			failed[i] = true
			result.Failures = append(result.Failures, Failure{
				Source:   req.Source.Path,
				DataType: req.DataType,
				Reason:   ctx.Err().Error(),
			})
			mu.Unlock()
			continue
		}

		i, req := i, req
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			count, failures := s.processRequest(ctx, req)

			mu.Lock()
			defer mu.Unlock()
			result.Total += count
			if count > 0 {
				result.ByType[req.DataType] += count
			}
			result.Failures = append(result.Failures, failures...)
			if count == 0 && len(failures) > 0 {
				failed[i] = true
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			failed[i] = true
			result.Failures = append(result.Failures, Failure{
				Source:   req.Source.Path,
				DataType: req.DataType,
				Reason:   submitErr.Error(),
			})
			mu.Unlock()
		}
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	allFailed := true
	for _, f := range failed {
		if !f {
			allFailed = false
			break
		}
	}
	if allFailed {
		return result, &BatchError{Failures: result.Failures}
	}
	return result, nil
}

// processRequest runs the per-record pipeline for one source. Records are
// upserted in source order; the store's last-write-wins conflict handling
// depends on it.
func (s *Service) processRequest(ctx context.Context, req Request) (int, []Failure) {
	fail := func(recordID, reason string) Failure {
		return Failure{
			Source:   req.Source.Path,
			DataType: req.DataType,
			RecordID: recordID,
			Reason:   reason,
		}
	}

	if _, err := crm.ParseDataType(string(req.DataType)); err != nil {
		return 0, []Failure{fail("", err.Error())}
	}

	raws, err := s.loader.Load(ctx, req.Source)
	if err != nil {
		slog.Warn("source load failed", "path", req.Source.Path, "dataType", req.DataType, "error", err)
		return 0, []Failure{fail("", err.Error())}
	}

	var (
		count    int
		failures []Failure
	)
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			failures = append(failures, fail("", err.Error()))
			break
		}

		record, err := crm.DecodeRecord(raw, req.DataType)
		if err != nil {
			if errors.Is(err, crm.ErrRecordInvalid) {
				slog.Warn("skipping invalid record", "path", req.Source.Path, "error", err)
				failures = append(failures, fail("", err.Error()))
				continue
			}
			failures = append(failures, fail("", err.Error()))
			continue
		}

		content, err := crm.FormatRecord(record)
		if err != nil {
			failures = append(failures, fail(record.RecordID(), err.Error()))
			continue
		}

		vec, err := s.embedder.EmbedSingle(ctx, content)
		if err != nil {
			slog.Warn("embedding failed", "recordId", record.RecordID(), "error", err)
			failures = append(failures, fail(record.RecordID(), err.Error()))
			continue
		}

		var metadata map[string]interface{}
		if err := json.Unmarshal(raw, &metadata); err != nil {
			metadata = map[string]interface{}{}
		}
		metadata["type"] = string(req.DataType)

		doc := vectorstore.Document{
			ID:        fmt.Sprintf("%s:%s", req.DataType, record.RecordID()),
			Kind:      string(req.DataType),
			Content:   content,
			Embedding: vec,
			Metadata:  metadata,
		}
		if err := s.store.Upsert(ctx, []vectorstore.Document{doc}); err != nil {
			slog.Warn("upsert failed", "recordId", record.RecordID(), "error", err)
			failures = append(failures, fail(record.RecordID(), err.Error()))
			continue
		}
		count++
	}

	return count, failures
}
