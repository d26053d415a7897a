package domain

// Provider identifies the producer of a raw record batch. The set is open:
// new providers register a source adapter and a field mapping, nothing else.
type Provider string

const (
	ProviderAWS        Provider = "aws"
	ProviderAzure      Provider = "azure"
	ProviderGCP        Provider = "gcp"
	ProviderDatabricks Provider = "databricks"
	ProviderSnowflake  Provider = "snowflake"
)

// RawRecord is one loosely-typed line item exactly as the source adapter
// produced it. Keys are provider vocabulary, values are whatever the
// provider's query returned.
type RawRecord map[string]any

// Well-known metric keys. Providers are not required to supply any of them;
// rules treat an absent key as "unknown", never as zero.
const (
	MetricUtilizationPrimary   = "utilization_primary"
	MetricUtilizationSecondary = "utilization_secondary"
	MetricAttachedTo           = "attached_to"
	MetricUsageHours           = "usage_hours"
	MetricUnitRate             = "unit_rate"
	MetricUnitType             = "unit_type"
	MetricRegion               = "region"
	MetricLineItems            = "line_items"
)

// CanonicalRecord is the provider-independent representation of one billing
// or finding line item. Records are produced once per ingestion batch and
// never mutated afterwards.
type CanonicalRecord struct {
	ResourceID string
	Provider   Provider
	Amount     float64 // cost in USD, or a severity axis for non-cost domains
	Category   string  // normalized classification, e.g. "compute", "storage"
	Metrics    map[string]any
}

// Normalized category vocabulary.
const (
	CategoryCompute  = "compute"
	CategoryStorage  = "storage"
	CategoryDatabase = "database"
	CategoryNetwork  = "network"
	CategoryOther    = "other"
)

// Metric returns the named metric and whether the provider supplied it.
func (r CanonicalRecord) Metric(key string) (any, bool) {
	v, ok := r.Metrics[key]
	return v, ok
}

// MetricFloat returns the named metric coerced to float64. The second return
// is false when the key is absent or not numeric.
func (r CanonicalRecord) MetricFloat(key string) (float64, bool) {
	v, ok := r.Metrics[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// MetricString returns the named metric as a non-empty string.
func (r CanonicalRecord) MetricString(key string) (string, bool) {
	v, ok := r.Metrics[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
