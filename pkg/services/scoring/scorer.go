package scoring

import (
	"sort"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

// Config carries the fixed scoring constants. Implementation costs are
// rough human-effort estimates per opportunity kind; they are deliberately
// static so scores stay reproducible across runs.
type Config struct {
	ImplementationCostUSD map[domain.Kind]float64
	PeriodsPerYear        float64
	LargeImpactUSD        float64 // impact at or above this scores +50
	MediumImpactUSD       float64 // impact at or above this scores +30, below scores +10
	VeryHighRoiPct        float64 // ROI at or above this scores +30
	HighRoiPct            float64 // ROI at or above this scores +20
}

// riskByKind is fixed per rule: elimination of idle or unattached assets and
// pocketing a price drop are low risk, resizing and commitments carry more.
var riskByKind = map[domain.Kind]domain.RiskLevel{
	domain.KindIdleResource:       domain.RiskLow,
	domain.KindUnattachedAsset:    domain.RiskLow,
	domain.KindPriceReduction:     domain.RiskLow,
	domain.KindOverProvisioned:    domain.RiskMedium,
	domain.KindReservedCommitment: domain.RiskMedium,
}

type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the deterministic priority score and ROI metrics for one
// candidate. A candidate with a non-positive estimated impact is a defect in
// the emitting rule and fails loudly instead of being clamped.
func (s *Scorer) Score(candidate domain.Candidate) (domain.ScoredOpportunity, error) {
	if candidate.EstimatedImpact <= 0 {
		return domain.ScoredOpportunity{}, &domain.ScoringInvariantError{
			Key:    candidate.Key(),
			Reason: "estimated impact must be positive",
		}
	}

	opportunity := domain.ScoredOpportunity{
		Candidate: candidate,
		RiskLevel: riskByKind[candidate.Kind],
		Status:    domain.StatusScored,
	}
	if opportunity.RiskLevel == "" {
		opportunity.RiskLevel = domain.RiskMedium
	}

	cost := s.cfg.ImplementationCostUSD[candidate.Kind]
	if cost > 0 {
		opportunity.RoiPercent = (candidate.EstimatedImpact - cost) / cost * 100
		opportunity.PaybackPeriods = cost / (candidate.EstimatedImpact / s.cfg.PeriodsPerYear)
	} else {
		// Zero implementation cost makes ROI unbounded; the sentinel keeps
		// consumers from special-casing an overflow value.
		opportunity.RoiUnbounded = true
	}

	opportunity.PriorityScore = s.priority(opportunity)
	return opportunity, nil
}

func (s *Scorer) priority(o domain.ScoredOpportunity) int {
	score := 0

	switch {
	case o.EstimatedImpact >= s.cfg.LargeImpactUSD:
		score += 50
	case o.EstimatedImpact >= s.cfg.MediumImpactUSD:
		score += 30
	default:
		score += 10
	}

	switch {
	case o.RoiUnbounded || o.RoiPercent >= s.cfg.VeryHighRoiPct:
		score += 30
	case o.RoiPercent >= s.cfg.HighRoiPct:
		score += 20
	}

	if o.RiskLevel == domain.RiskLow || o.RiskLevel == domain.RiskNone {
		score += 20
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ScoreAll scores a candidate batch and ranks the result by the scorer's
// total order: priority descending, then estimated impact descending, then
// resource id ascending. The order is total, so ranking and pagination are
// stable for identical input.
func (s *Scorer) ScoreAll(candidates []domain.Candidate) ([]domain.ScoredOpportunity, error) {
	opportunities := make([]domain.ScoredOpportunity, 0, len(candidates))
	for _, candidate := range candidates {
		scored, err := s.Score(candidate)
		if err != nil {
			return nil, err
		}
		opportunities = append(opportunities, scored)
	}

	Rank(opportunities)
	return opportunities, nil
}

// Rank sorts opportunities in place by the total order from Score.
func Rank(opportunities []domain.ScoredOpportunity) {
	sort.SliceStable(opportunities, func(i, j int) bool {
		a, b := opportunities[i], opportunities[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if a.EstimatedImpact != b.EstimatedImpact {
			return a.EstimatedImpact > b.EstimatedImpact
		}
		if a.ResourceID != b.ResourceID {
			return a.ResourceID < b.ResourceID
		}
		return a.Key() < b.Key()
	})
}
