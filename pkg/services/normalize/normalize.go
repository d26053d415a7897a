package normalize

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

// AmountCodec says how a provider encodes the cost field.
type AmountCodec int

const (
	// AmountFloat accepts float64 or a stringified float.
	AmountFloat AmountCodec = iota
	// AmountString accepts only a stringified decimal.
	AmountString
	// AmountMinorUnits accepts an integer count of minor currency units
	// (cents) and divides by 100.
	AmountMinorUnits
)

// FieldMapping is the static per-provider table describing how raw keys map
// into the canonical schema. It is data, not code: registering a provider
// never touches the normalizer's dispatch.
type FieldMapping struct {
	ResourceIDKey string
	AmountKey     string
	AmountCodec   AmountCodec
	// CategoryKey names the raw field carrying the provider's service code;
	// its value runs through Categories. When empty, every record gets
	// DefaultCategory.
	CategoryKey     string
	Categories      map[string]string // provider service code -> canonical category
	DefaultCategory string
	// Metrics maps raw keys into canonical metric names. Absent raw keys are
	// simply skipped; rules treat them as unknown.
	Metrics map[string]string
	// MetricsKey optionally names a raw field that already carries a nested
	// metrics map; its entries are copied through untranslated.
	MetricsKey string
}

// Normalizer converts raw provider batches into canonical records using
// registered field mappings.
type Normalizer struct {
	mappings map[domain.Provider]FieldMapping
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		mappings: make(map[domain.Provider]FieldMapping),
	}
}

func (n *Normalizer) Register(provider domain.Provider, mapping FieldMapping) error {
	if provider == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if mapping.ResourceIDKey == "" || mapping.AmountKey == "" {
		return fmt.Errorf("mapping for %q must name resource id and amount keys", provider)
	}
	if _, exists := n.mappings[provider]; exists {
		return fmt.Errorf("provider %q is already registered", provider)
	}
	n.mappings[provider] = mapping
	return nil
}

// Normalize maps one provider's raw batch into canonical records. Malformed
// records are dropped and counted, never fatal; only an unregistered
// provider is an error. The output is deterministic for identical input:
// no randomness, no clock reads.
func (n *Normalizer) Normalize(
	ctx context.Context,
	provider domain.Provider,
	raw []domain.RawRecord,
) (domain.IngestSummary, error) {
	logger := zerolog.Ctx(ctx)

	mapping, ok := n.mappings[provider]
	if !ok {
		return domain.IngestSummary{}, fmt.Errorf("provider %q is not registered", provider)
	}

	summary := domain.IngestSummary{
		Provider: provider,
		Records:  make([]domain.CanonicalRecord, 0, len(raw)),
	}

	for _, record := range raw {
		canonical, err := n.normalizeOne(provider, mapping, record)
		if err != nil {
			summary.RejectedCount++
			logger.Warn().Err(err).Str("provider", string(provider)).Msg("record rejected")
			continue
		}
		summary.Records = append(summary.Records, canonical)
	}

	summary.NormalizedCount = len(summary.Records)
	return summary, nil
}

func (n *Normalizer) normalizeOne(
	provider domain.Provider,
	mapping FieldMapping,
	raw domain.RawRecord,
) (domain.CanonicalRecord, error) {
	id, ok := raw[mapping.ResourceIDKey].(string)
	if !ok || id == "" {
		return domain.CanonicalRecord{}, &domain.RecordRejectedError{
			Provider: provider,
			Field:    mapping.ResourceIDKey,
			Reason:   "is missing or empty",
		}
	}

	rawAmount, ok := raw[mapping.AmountKey]
	if !ok {
		return domain.CanonicalRecord{}, &domain.RecordRejectedError{
			Provider: provider,
			Field:    mapping.AmountKey,
			Reason:   "is missing",
		}
	}
	amount, err := coerceAmount(rawAmount, mapping.AmountCodec)
	if err != nil {
		return domain.CanonicalRecord{}, &domain.RecordRejectedError{
			Provider: provider,
			Field:    mapping.AmountKey,
			Reason:   err.Error(),
		}
	}
	if amount < 0 {
		return domain.CanonicalRecord{}, &domain.RecordRejectedError{
			Provider: provider,
			Field:    mapping.AmountKey,
			Reason:   "is negative",
		}
	}

	category := mapping.DefaultCategory
	if category == "" {
		category = domain.CategoryOther
	}
	if mapping.CategoryKey != "" {
		if code, ok := raw[mapping.CategoryKey].(string); ok {
			category = MapCategory(code, mapping.Categories, category)
		}
	}

	metrics := make(map[string]any)
	if mapping.MetricsKey != "" {
		if nested, ok := raw[mapping.MetricsKey].(map[string]any); ok {
			for k, v := range nested {
				metrics[k] = v
			}
		}
	}
	for rawKey, metricName := range mapping.Metrics {
		if v, ok := raw[rawKey]; ok {
			metrics[metricName] = v
		}
	}

	return domain.CanonicalRecord{
		ResourceID: id,
		Provider:   provider,
		Amount:     amount,
		Category:   category,
		Metrics:    metrics,
	}, nil
}

// Providers lists the registered providers in stable order.
func (n *Normalizer) Providers() []domain.Provider {
	providers := make([]domain.Provider, 0, len(n.mappings))
	for p := range n.mappings {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}

func coerceAmount(v any, codec AmountCodec) (float64, error) {
	switch codec {
	case AmountMinorUnits:
		switch n := v.(type) {
		case int:
			return float64(n) / 100, nil
		case int64:
			return float64(n) / 100, nil
		case float64:
			// JSON decodes integers as float64.
			return n / 100, nil
		}
		return 0, fmt.Errorf("cannot coerce %T to minor units", v)
	case AmountString:
		s, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("cannot coerce %T to string amount", v)
		}
		amount, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse amount %q", s)
		}
		return amount, nil
	default:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			amount, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return 0, fmt.Errorf("cannot parse amount %q", n)
			}
			return amount, nil
		}
		return 0, fmt.Errorf("cannot coerce %T to amount", v)
	}
}

// MapCategory translates a provider service code into the canonical category
// vocabulary, first by exact lookup, then by keyword containment.
func MapCategory(code string, table map[string]string, fallback string) string {
	if category, ok := table[code]; ok {
		return category
	}
	if category, ok := keywordCategory(code); ok {
		return category
	}
	return fallback
}
