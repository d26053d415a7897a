package rules

import (
	"fmt"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

// RateKey identifies a historical per-unit rate by provider and unit type.
func RateKey(provider domain.Provider, unitType string) string {
	return fmt.Sprintf("%s|%s", provider, unitType)
}

// RateLookup supplies previously observed per-unit rates, keyed by RateKey.
// It is passed in explicitly, sourced from the persisted rate history, so
// the rule itself stays pure.
type RateLookup map[string]float64

// priceDropRule fires when a record's current per-unit rate has fallen below
// the drop ratio of its historical rate. The boundary is exclusive: a rate
// at exactly historical*ratio does not fire.
type priceDropRule struct {
	dropRatio  float64
	historical RateLookup
}

func NewPriceDropRule(dropRatio float64, historical RateLookup) Rule {
	return &priceDropRule{
		dropRatio:  dropRatio,
		historical: historical,
	}
}

func (r *priceDropRule) Kind() domain.Kind {
	return domain.KindPriceReduction
}

func (r *priceDropRule) Detect(records []domain.CanonicalRecord) []domain.Candidate {
	var candidates []domain.Candidate
	for _, record := range records {
		unitType, ok := record.MetricString(domain.MetricUnitType)
		if !ok {
			continue
		}
		current, ok := record.MetricFloat(domain.MetricUnitRate)
		if !ok {
			continue
		}
		historical, ok := r.historical[RateKey(record.Provider, unitType)]
		if !ok {
			continue
		}
		if current >= historical*r.dropRatio {
			continue
		}
		hours, ok := record.MetricFloat(domain.MetricUsageHours)
		if !ok {
			continue
		}

		impact := (historical - current) * hours
		if impact <= 0 {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			Kind:            r.Kind(),
			ResourceID:      record.ResourceID,
			Provider:        record.Provider,
			CurrentValue:    record.Amount,
			EstimatedImpact: impact,
			Evidence: map[string]any{
				domain.MetricUnitType:   unitType,
				domain.MetricUnitRate:   current,
				domain.MetricUsageHours: hours,
				"historical_rate":       historical,
				"drop_ratio":            r.dropRatio,
			},
		})
	}
	return candidates
}
