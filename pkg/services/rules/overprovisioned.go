package rules

import "github.com/de-tools/cost-radar/pkg/models/domain"

// overProvisionedRule flags compute resources where both utilization axes
// sit below the threshold. The right-sizing factor is a deliberately
// conservative constant, not a learned estimate.
type overProvisionedRule struct {
	thresholdPct      float64
	rightSizingFactor float64
}

func NewOverProvisionedRule(thresholdPct, rightSizingFactor float64) Rule {
	return &overProvisionedRule{
		thresholdPct:      thresholdPct,
		rightSizingFactor: rightSizingFactor,
	}
}

func (r *overProvisionedRule) Kind() domain.Kind {
	return domain.KindOverProvisioned
}

func (r *overProvisionedRule) Detect(records []domain.CanonicalRecord) []domain.Candidate {
	var candidates []domain.Candidate
	for _, record := range records {
		if record.Category != domain.CategoryCompute {
			continue
		}
		primary, ok := record.MetricFloat(domain.MetricUtilizationPrimary)
		if !ok || primary >= r.thresholdPct {
			continue
		}
		secondary, ok := record.MetricFloat(domain.MetricUtilizationSecondary)
		if !ok || secondary >= r.thresholdPct {
			continue
		}

		impact := record.Amount * r.rightSizingFactor
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
				domain.MetricUtilizationPrimary:   primary,
				domain.MetricUtilizationSecondary: secondary,
				"threshold_pct":                   r.thresholdPct,
				"right_sizing_factor":             r.rightSizingFactor,
			},
		})
	}
	return candidates
}
