package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Loader reads declared data sources from disk. Each call re-reads the
// file; nothing is cached between calls.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Load reads one data source and returns its raw records. The records are
// returned undecoded so the caller can validate and skip them one at a
// time.
func (l *Loader) Load(ctx context.Context, src DataSource) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch src.Type {
	case SourceTypeJSON:
		return l.loadJSON(src.Path)
	case SourceTypeCSV:
		return nil, fmt.Errorf("%w: CSV読み込みは未実装です", ErrUnsupportedSourceType)
	case SourceTypeExcel:
		return nil, fmt.Errorf("%w: Excel読み込みは未実装です", ErrUnsupportedSourceType)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSourceType, src.Type)
}

func (l *Loader) loadJSON(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSource, path, err)
	}
	return records, nil
}
