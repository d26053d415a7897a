package rules

import "github.com/de-tools/cost-radar/pkg/models/domain"

// unattachedRule flags storage-class resources carrying no attachment
// reference. The whole cost is recoverable by deleting the asset.
type unattachedRule struct{}

func NewUnattachedRule() Rule {
	return &unattachedRule{}
}

func (r *unattachedRule) Kind() domain.Kind {
	return domain.KindUnattachedAsset
}

func (r *unattachedRule) Detect(records []domain.CanonicalRecord) []domain.Candidate {
	var candidates []domain.Candidate
	for _, record := range records {
		if record.Category != domain.CategoryStorage {
			continue
		}
		if _, attached := record.MetricString(domain.MetricAttachedTo); attached {
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
				"category":              record.Category,
				domain.MetricAttachedTo: "",
			},
		})
	}
	return candidates
}
