package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankinworks/crmrag/internal/crm"
	"github.com/bankinworks/crmrag/internal/vectorstore"
)

// mockEmbedder returns a fixed vector, optionally failing for texts that
// contain failOn.
type mockEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (m *mockEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("embedding backend down")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func threeValidRequests(t *testing.T) []Request {
	t.Helper()
	dir := t.TempDir()
	customers := writeSource(t, dir, "customers.json",
		`[{"customerId": "CUST-001", "name": "山田太郎", "phone": "090-1234-5678", "totalSales": 450000, "visitCount": 3}]`)
	quotes := writeSource(t, dir, "quotes.json",
		`[{"quoteId": "Q-2024-001", "customerId": "CUST-001", "vehicleInfo": "トヨタ プリウス", "totalAmount": 50000, "status": "承認済み", "quoteDate": "2024-01-20"}]`)
	work := writeSource(t, dir, "work.json",
		`[{"workId": "WORK-001", "customerId": "CUST-001", "workType": "板金塗装", "technician": "山本職人", "totalCost": 45000, "rating": 5}]`)

	return []Request{
		{Source: crm.DataSource{Type: crm.SourceTypeJSON, Path: customers}, DataType: crm.DataTypeCustomer},
		{Source: crm.DataSource{Type: crm.SourceTypeJSON, Path: quotes}, DataType: crm.DataTypeQuote},
		{Source: crm.DataSource{Type: crm.SourceTypeJSON, Path: work}, DataType: crm.DataTypeWorkHistory},
	}
}

func newTestService(store vectorstore.VectorStore, embedder Embedder) *Service {
	return NewService(crm.NewLoader(), embedder, store, 2)
}

func TestIngestBulk_ThreeSources(t *testing.T) {
	store := vectorstore.NewMemoryStore("bankin_crm_data")
	svc := newTestService(store, &mockEmbedder{})

	result, err := svc.IngestBulk(context.Background(), threeValidRequests(t))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, map[crm.DataType]int{
		crm.DataTypeCustomer:    1,
		crm.DataTypeQuote:       1,
		crm.DataTypeWorkHistory: 1,
	}, result.ByType)
	assert.Empty(t, result.Failures)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalDocuments)
}

func TestIngestBulk_TotalEqualsByTypeSum(t *testing.T) {
	store := vectorstore.NewMemoryStore("bankin_crm_data")
	svc := newTestService(store, &mockEmbedder{})

	result, err := svc.IngestBulk(context.Background(), threeValidRequests(t))
	require.NoError(t, err)

	sum := 0
	for _, n := range result.ByType {
		sum += n
	}
	assert.Equal(t, result.Total, sum)
}

func TestIngestBulk_OneBadSourceAmongGood(t *testing.T) {
	store := vectorstore.NewMemoryStore("bankin_crm_data")
	svc := newTestService(store, &mockEmbedder{})

	requests := threeValidRequests(t)
	requests = append(requests, Request{
		Source:   crm.DataSource{Type: crm.SourceTypeJSON, Path: "/nonexistent/file.json"},
		DataType: crm.DataTypeCustomer,
	})

	result, err := svc.IngestBulk(context.Background(), requests)
	require.NoError(t, err, "one bad source among good ones must not be an error")

	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "/nonexistent/file.json", result.Failures[0].Source)
}

func TestIngestBulk_UnsupportedSourceTypeIsolated(t *testing.T) {
	store := vectorstore.NewMemoryStore("bankin_crm_data")
	svc := newTestService(store, &mockEmbedder{})

	requests := append(threeValidRequests(t), Request{
		Source:   crm.DataSource{Type: crm.SourceTypeExcel, Path: "./crm.xlsx"},
		DataType: crm.DataTypeCustomer,
	})

	result, err := svc.IngestBulk(context.Background(), requests)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Reason, "未実装")
}

func TestIngestBulk_EmptyBatch(t *testing.T) {
	svc := newTestService(vectorstore.NewMemoryStore("bankin_crm_data"), &mockEmbedder{})

	_, err := svc.IngestBulk(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRequests)
}

func TestIngestBulk_AllRequestsFail(t *testing.T) {
	svc := newTestService(vectorstore.NewMemoryStore("bankin_crm_data"), &mockEmbedder{})

	requests := []Request{
		{Source: crm.DataSource{Type: crm.SourceTypeJSON, Path: "/missing/a.json"}, DataType: crm.DataTypeCustomer},
		{Source: crm.DataSource{Type: crm.SourceTypeExcel, Path: "./b.xlsx"}, DataType: crm.DataTypeQuote},
	}

	result, err := svc.IngestBulk(context.Background(), requests)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Len(t, batchErr.Failures, 2)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Total)
}

func TestIngestBulk_InvalidRecordSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "customers.json", `[
		{"customerId": "CUST-001", "name": "山田太郎"},
		{"customerId": "CUST-BROKEN"},
		{"customerId": "CUST-002", "name": "佐藤花子"}
	]`)

	store := vectorstore.NewMemoryStore("bankin_crm_data")
	svc := newTestService(store, &mockEmbedder{})

	result, err := svc.IngestBulk(context.Background(), []Request{
		{Source: crm.DataSource{Type: crm.SourceTypeJSON, Path: path}, DataType: crm.DataTypeCustomer},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.ByType[crm.DataTypeCustomer])
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Reason, "invalid record")
}

func TestIngestBulk_EmbedFailureSkipsOnlyThatRecord(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "customers.json", `[
		{"customerId": "CUST-001", "name": "山田太郎"},
		{"customerId": "CUST-002", "name": "佐藤花子"}
	]`)

	store := vectorstore.NewMemoryStore("bankin_crm_data")
	svc := newTestService(store, &mockEmbedder{failOn: "佐藤花子"})

	result, err := svc.IngestBulk(context.Background(), []Request{
		{Source: crm.DataSource{Type: crm.SourceTypeJSON, Path: path}, DataType: crm.DataTypeCustomer},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "CUST-002", result.Failures[0].RecordID)
}

func TestIngestBulk_UpsertOrderWithinRequest(t *testing.T) {
	// The store keeps last-write-wins per ID, so records within one source
	// must be upserted in source order.
	dir := t.TempDir()
	path := writeSource(t, dir, "customers.json", `[
		{"customerId": "CUST-001", "name": "旧データ"},
		{"customerId": "CUST-001", "name": "新データ"}
	]`)

	store := vectorstore.NewMemoryStore("bankin_crm_data")
	svc := newTestService(store, &mockEmbedder{})

	result, err := svc.IngestBulk(context.Background(), []Request{
		{Source: crm.DataSource{Type: crm.SourceTypeJSON, Path: path}, DataType: crm.DataTypeCustomer},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)

	results, err := store.SimilaritySearch(context.Background(), []float32{0.1, 0.2, 0.3}, vectorstore.SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "新データ")
}

func TestIngestBulk_CancelledContextReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(vectorstore.NewMemoryStore("bankin_crm_data"), &mockEmbedder{})

	result, err := svc.IngestBulk(ctx, threeValidRequests(t))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Total)
	assert.NotEmpty(t, result.Failures)
}

func TestIngestBulk_ManyRecordsCountCommutative(t *testing.T) {
	// Counts must not depend on completion order across concurrent requests.
	dir := t.TempDir()
	var requests []Request
	for i := 0; i < 6; i++ {
		var sb strings.Builder
		sb.WriteString("[")
		for j := 0; j < 5; j++ {
			if j > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"customerId": "CUST-%d-%d", "name": "顧客%d"}`, i, j, j)
		}
		sb.WriteString("]")
		path := writeSource(t, dir, fmt.Sprintf("customers_%d.json", i), sb.String())
		requests = append(requests, Request{
			Source:   crm.DataSource{Type: crm.SourceTypeJSON, Path: path},
			DataType: crm.DataTypeCustomer,
		})
	}

	store := vectorstore.NewMemoryStore("bankin_crm_data")
	svc := newTestService(store, &mockEmbedder{})

	result, err := svc.IngestBulk(context.Background(), requests)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Total)
	assert.Equal(t, 30, result.ByType[crm.DataTypeCustomer])
}
