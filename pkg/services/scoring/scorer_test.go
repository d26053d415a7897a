package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

func testConfig() Config {
	return Config{
		ImplementationCostUSD: map[domain.Kind]float64{
			domain.KindIdleResource:       25,
			domain.KindOverProvisioned:    100,
			domain.KindUnattachedAsset:    10,
			domain.KindPriceReduction:     0,
			domain.KindReservedCommitment: 200,
		},
		PeriodsPerYear:  12,
		LargeImpactUSD:  500,
		MediumImpactUSD: 50,
		VeryHighRoiPct:  400,
		HighRoiPct:      100,
	}
}

func idleCandidate(id string, impact float64) domain.Candidate {
	return domain.Candidate{
		Kind:            domain.KindIdleResource,
		ResourceID:      id,
		Provider:        domain.ProviderAWS,
		CurrentValue:    impact,
		EstimatedImpact: impact,
	}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(testConfig())

	t.Run("large impact idle resource reaches top priority", func(t *testing.T) {
		o, err := scorer.Score(idleCandidate("r1", 500.0))
		require.NoError(t, err)

		// impact 500 -> +50, ROI 1900% -> +30, low risk -> +20
		assert.Equal(t, 100, o.PriorityScore)
		assert.GreaterOrEqual(t, o.PriorityScore, 80)
		assert.InDelta(t, 1900.0, o.RoiPercent, 1e-9)
		assert.False(t, o.RoiUnbounded)
		assert.InDelta(t, 0.6, o.PaybackPeriods, 1e-9)
		assert.Equal(t, domain.RiskLow, o.RiskLevel)
		assert.Equal(t, domain.StatusScored, o.Status)
	})

	t.Run("small impact lands in the low bucket", func(t *testing.T) {
		o, err := scorer.Score(idleCandidate("r2", 30.0))
		require.NoError(t, err)

		// impact 30 -> +10, ROI 20% -> +0, low risk -> +20
		assert.Equal(t, 30, o.PriorityScore)
	})

	t.Run("zero implementation cost sets the unbounded sentinel", func(t *testing.T) {
		o, err := scorer.Score(domain.Candidate{
			Kind:            domain.KindPriceReduction,
			ResourceID:      "r3",
			Provider:        domain.ProviderAWS,
			EstimatedImpact: 60.0,
		})
		require.NoError(t, err)

		assert.True(t, o.RoiUnbounded)
		assert.Zero(t, o.RoiPercent, "numeric ROI is meaningless when unbounded")
		assert.Zero(t, o.PaybackPeriods)
		// impact 60 -> +30, unbounded ROI -> +30, low risk -> +20
		assert.Equal(t, 80, o.PriorityScore)
	})

	t.Run("negative ROI is valid and scores zero ROI points", func(t *testing.T) {
		o, err := scorer.Score(domain.Candidate{
			Kind:            domain.KindReservedCommitment,
			ResourceID:      "r4",
			Provider:        domain.ProviderAWS,
			EstimatedImpact: 120.0,
		})
		require.NoError(t, err)

		assert.Less(t, o.RoiPercent, 0.0)
		// impact 120 -> +30, ROI -40% -> +0, medium risk -> +0
		assert.Equal(t, 30, o.PriorityScore)
	})

	t.Run("score is always within 0..100", func(t *testing.T) {
		for _, impact := range []float64{0.01, 49.99, 50, 499.99, 500, 1e9} {
			o, err := scorer.Score(idleCandidate("rX", impact))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, o.PriorityScore, 0)
			assert.LessOrEqual(t, o.PriorityScore, 100)
		}
	})

	t.Run("non-positive impact fails loudly", func(t *testing.T) {
		for _, impact := range []float64{0, -10} {
			_, err := scorer.Score(idleCandidate("bad", impact))
			require.Error(t, err)

			var invariant *domain.ScoringInvariantError
			require.ErrorAs(t, err, &invariant)
		}
	})

	t.Run("identical input yields identical output", func(t *testing.T) {
		first, err := scorer.Score(idleCandidate("r5", 73.5))
		require.NoError(t, err)
		second, err := scorer.Score(idleCandidate("r5", 73.5))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestScorer_ScoreAll_Ranking(t *testing.T) {
	scorer := NewScorer(testConfig())

	candidates := []domain.Candidate{
		idleCandidate("charlie", 600.0),
		idleCandidate("alpha", 30.0),
		idleCandidate("bravo", 600.0),
		idleCandidate("delta", 200.0),
	}

	opportunities, err := scorer.ScoreAll(candidates)
	require.NoError(t, err)
	require.Len(t, opportunities, 4)

	ids := make([]string, 0, len(opportunities))
	for _, o := range opportunities {
		ids = append(ids, o.ResourceID)
	}

	// Equal priority and impact tie-break on resource id ascending.
	assert.Equal(t, []string{"bravo", "charlie", "delta", "alpha"}, ids)
}
