package rules

import (
	"fmt"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

// reservedRule groups compute spend by (provider, unit type, region) and
// flags groups with sustained spend above the floor, where committed pricing
// would recover the savings rate. The group key doubles as the aggregate
// resource id of the candidate.
type reservedRule struct {
	floorUSD     float64
	minLineItems int
	savingsRate  float64
}

func NewReservedRule(floorUSD float64, minLineItems int, savingsRate float64) Rule {
	return &reservedRule{
		floorUSD:     floorUSD,
		minLineItems: minLineItems,
		savingsRate:  savingsRate,
	}
}

func (r *reservedRule) Kind() domain.Kind {
	return domain.KindReservedCommitment
}

type commitmentGroup struct {
	provider  domain.Provider
	unitType  string
	region    string
	total     float64
	lineItems int
}

func (r *reservedRule) Detect(records []domain.CanonicalRecord) []domain.Candidate {
	groups := make(map[string]*commitmentGroup)
	var order []string

	for _, record := range records {
		if record.Category != domain.CategoryCompute {
			continue
		}
		unitType, ok := record.MetricString(domain.MetricUnitType)
		if !ok {
			continue
		}
		region, _ := record.MetricString(domain.MetricRegion)

		key := fmt.Sprintf("%s:%s:%s", record.Provider, unitType, region)
		group, exists := groups[key]
		if !exists {
			group = &commitmentGroup{provider: record.Provider, unitType: unitType, region: region}
			groups[key] = group
			order = append(order, key)
		}
		group.total += record.Amount
		group.lineItems++
	}

	// Emission order follows first appearance, not map iteration.
	var candidates []domain.Candidate
	for _, key := range order {
		group := groups[key]
		if group.total <= r.floorUSD || group.lineItems < r.minLineItems {
			continue
		}

		impact := group.total * r.savingsRate
		if impact <= 0 {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			Kind:            r.Kind(),
			ResourceID:      key,
			Provider:        group.provider,
			CurrentValue:    group.total,
			EstimatedImpact: impact,
			Evidence: map[string]any{
				domain.MetricUnitType: group.unitType,
				domain.MetricRegion:   group.region,
				"line_items":          group.lineItems,
				"savings_rate":        r.savingsRate,
			},
		})
	}
	return candidates
}
