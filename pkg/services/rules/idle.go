package rules

import "github.com/de-tools/cost-radar/pkg/models/domain"

// idleRule flags compute-class resources whose primary utilization sits
// below the threshold. The full current cost is recoverable by eliminating
// the resource.
type idleRule struct {
	thresholdPct float64
}

func NewIdleRule(thresholdPct float64) Rule {
	return &idleRule{thresholdPct: thresholdPct}
}

func (r *idleRule) Kind() domain.Kind {
	return domain.KindIdleResource
}

func (r *idleRule) Detect(records []domain.CanonicalRecord) []domain.Candidate {
	var candidates []domain.Candidate
	for _, record := range records {
		if record.Category != domain.CategoryCompute {
			continue
		}
		utilization, ok := record.MetricFloat(domain.MetricUtilizationPrimary)
		if !ok || utilization >= r.thresholdPct {
			continue
		}
		if record.Amount <= 0 {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			Kind:            r.Kind(),
			ResourceID:      record.ResourceID,
			Provider:        record.Provider,
			CurrentValue:    record.Amount,
			EstimatedImpact: record.Amount,
			Evidence: map[string]any{
				domain.MetricUtilizationPrimary: utilization,
				"threshold_pct":                 r.thresholdPct,
				"category":                      record.Category,
			},
		})
	}
	return candidates
}
