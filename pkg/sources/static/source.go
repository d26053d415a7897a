package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/de-tools/cost-radar/pkg/models/domain"
	"github.com/de-tools/cost-radar/pkg/sources"
)

// Source serves a fixed set of raw records. Used for file-based ingestion
// from the CLI and as a stand-in provider in tests.
type Source struct {
	provider domain.Provider
	records  []domain.RawRecord
}

func NewSource(provider domain.Provider, records []domain.RawRecord) *Source {
	return &Source{provider: provider, records: records}
}

// SourceFactoryFor builds a factory reading a JSON array of raw records from
// the given file path, tagged with the provider.
func SourceFactoryFor(provider domain.Provider) sources.Factory {
	return func(_ context.Context, path string) (sources.Source, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read records file: %w", err)
		}

		var records []domain.RawRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse records file: %w", err)
		}

		return NewSource(provider, records), nil
	}
}

func (s *Source) Provider() domain.Provider {
	return s.provider
}

func (s *Source) Fetch(_ context.Context) ([]domain.RawRecord, error) {
	out := make([]domain.RawRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}
