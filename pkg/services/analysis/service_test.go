package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cost-radar/pkg/models/domain"
	storemodels "github.com/de-tools/cost-radar/pkg/models/store"
	"github.com/de-tools/cost-radar/pkg/services/assign"
	"github.com/de-tools/cost-radar/pkg/services/config"
	"github.com/de-tools/cost-radar/pkg/services/normalize"
	"github.com/de-tools/cost-radar/pkg/services/scoring"
	"github.com/de-tools/cost-radar/pkg/sources"
	"github.com/de-tools/cost-radar/pkg/sources/static"
	"github.com/de-tools/cost-radar/pkg/store/duckdb/opportunity"
)

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) CommitBatch(
	ctx context.Context,
	scored []domain.ScoredOpportunity,
	observations []storemodels.RateObservation,
) error {
	args := m.Called(ctx, scored, observations)
	return args.Error(0)
}

func (m *mockTracker) Transition(ctx context.Context, key string, to domain.Status, actor string) (*domain.ScoredOpportunity, error) {
	args := m.Called(ctx, key, to, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScoredOpportunity), args.Error(1)
}

func (m *mockTracker) Assign(ctx context.Context, key string, owner string, confidence float64, actor string) (*domain.ScoredOpportunity, error) {
	args := m.Called(ctx, key, owner, confidence, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScoredOpportunity), args.Error(1)
}

func (m *mockTracker) Get(ctx context.Context, key string) (*domain.ScoredOpportunity, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScoredOpportunity), args.Error(1)
}

func (m *mockTracker) List(ctx context.Context, filter opportunity.Filter) ([]domain.ScoredOpportunity, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.ScoredOpportunity), args.Error(1)
}

func (m *mockTracker) SLAStats(ctx context.Context) (domain.SLAStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SLAStats), args.Error(1)
}

type mockRateStore struct {
	mock.Mock
}

func (m *mockRateStore) LatestRates(ctx context.Context) ([]storemodels.RateObservation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]storemodels.RateObservation), args.Error(1)
}

func (m *mockRateStore) Record(ctx context.Context, observations []storemodels.RateObservation) error {
	args := m.Called(ctx, observations)
	return args.Error(0)
}

func testDetection() config.DetectionConfig {
	return config.DetectionConfig{
		IdleUtilizationPct:     5.0,
		OverProvisionedPct:     20.0,
		RightSizingFactor:      0.5,
		PriceDropRatio:         0.95,
		CommitmentFloorUSD:     100.0,
		CommitmentMinLineItems: 20,
		CommitmentSavingsRate:  0.4,
	}
}

func newTestService(
	t *testing.T,
	registry sources.Registry,
	tracker *mockTracker,
	rateStore *mockRateStore,
) Service {
	t.Helper()

	normalizer := normalize.NewNormalizer()
	require.NoError(t, normalizer.Register("static", normalize.GenericMapping()))
	require.NoError(t, normalizer.Register("flaky", normalize.GenericMapping()))

	assigner, err := assign.NewAssigner([]assign.Entry{
		{Pattern: "vol-", Team: "infra"},
		{Pattern: "compute", Team: "backend"},
	})
	require.NoError(t, err)

	scorer := scoring.NewScorer(scoring.Config{
		ImplementationCostUSD: map[domain.Kind]float64{
			domain.KindIdleResource:    25,
			domain.KindUnattachedAsset: 10,
		},
		PeriodsPerYear:  12,
		LargeImpactUSD:  500,
		MediumImpactUSD: 50,
		VeryHighRoiPct:  400,
		HighRoiPct:      100,
	})

	cfg := Config{
		Registry:   registry,
		Normalizer: normalizer,
		Scorer:     scorer,
		Assigner:   assigner,
		Tracker:    tracker,
		Detection:  testDetection(),
		Now:        func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	}
	if rateStore != nil {
		cfg.Rates = rateStore
	}

	svc, err := NewService(cfg)
	require.NoError(t, err)
	return svc
}

func staticFactory(provider domain.Provider, records []domain.RawRecord) sources.Factory {
	return func(_ context.Context, _ string) (sources.Source, error) {
		return static.NewSource(provider, records), nil
	}
}

func TestService_Ingest(t *testing.T) {
	tracker := new(mockTracker)
	svc := newTestService(t, sources.NewRegistry(), tracker, nil)

	summary, err := svc.Ingest(context.Background(), "static", []domain.RawRecord{
		{"resource_id": "i-1", "amount": 10.0},
		{"resource_id": "i-2", "amount": "broken"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NormalizedCount)
	assert.Equal(t, 1, summary.RejectedCount)

	_, err = svc.Ingest(context.Background(), "unknown", nil)
	require.Error(t, err)
}

func TestService_Analyze(t *testing.T) {
	registry := sources.NewRegistry()
	require.NoError(t, registry.Register("static", staticFactory("static", []domain.RawRecord{
		{
			"resource_id": "compute-idle-1",
			"amount":      500.0,
			"category":    "compute",
			"metrics":     map[string]any{"utilization_primary": 2.0},
		},
		{
			"resource_id": "vol-orphan",
			"amount":      30.0,
			"category":    "storage",
		},
		{
			"resource_id": "compute-busy",
			"amount":      900.0,
			"category":    "compute",
			"metrics":     map[string]any{"utilization_primary": 85.0},
		},
	})))

	tracker := new(mockTracker)
	tracker.On("CommitBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(t, registry, tracker, nil)

	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.RecordsAnalyzed)
	assert.Equal(t, 0, report.RejectedRecords)
	assert.InDelta(t, 1430.0, report.TotalAmount, 1e-9)
	assert.InDelta(t, 530.0, report.PotentialSavings, 1e-9)
	assert.InDelta(t, 1430.0, report.ByProvider["static"], 1e-9)
	assert.InDelta(t, 1400.0, report.ByCategory[domain.CategoryCompute], 1e-9)
	assert.InDelta(t, 30.0, report.ByCategory[domain.CategoryStorage], 1e-9)
	assert.Empty(t, report.Warnings)

	require.Len(t, report.Opportunities, 2)
	first := report.Opportunities[0]
	assert.Equal(t, domain.KindIdleResource, first.Kind)
	assert.Equal(t, "compute-idle-1", first.ResourceID)
	assert.Equal(t, 100, first.PriorityScore)
	assert.Equal(t, "backend", first.AssignedOwner)
	assert.Equal(t, 0.9, first.Confidence)

	second := report.Opportunities[1]
	assert.Equal(t, domain.KindUnattachedAsset, second.Kind)
	assert.Equal(t, "infra", second.AssignedOwner)

	tracker.AssertExpectations(t)
}

func TestService_Analyze_ProviderFailureIsWarning(t *testing.T) {
	registry := sources.NewRegistry()
	require.NoError(t, registry.Register("static", staticFactory("static", []domain.RawRecord{
		{
			"resource_id": "compute-idle-1",
			"amount":      500.0,
			"category":    "compute",
			"metrics":     map[string]any{"utilization_primary": 2.0},
		},
	})))
	require.NoError(t, registry.Register("flaky", func(_ context.Context, _ string) (sources.Source, error) {
		return nil, errors.New("credentials expired")
	}))

	tracker := new(mockTracker)
	tracker.On("CommitBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(t, registry, tracker, nil)

	report, err := svc.Analyze(context.Background())
	require.NoError(t, err, "one provider failing must not fail the batch")

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, domain.Provider("flaky"), report.Warnings[0].Provider)
	assert.Contains(t, report.Warnings[0].Message, "credentials expired")

	assert.Equal(t, 1, report.RecordsAnalyzed, "healthy providers still analyzed")
	require.Len(t, report.Opportunities, 1)
}

func TestService_Analyze_CommitFailureFailsRun(t *testing.T) {
	registry := sources.NewRegistry()
	require.NoError(t, registry.Register("static", staticFactory("static", []domain.RawRecord{
		{
			"resource_id": "compute-idle-1",
			"amount":      500.0,
			"category":    "compute",
			"metrics":     map[string]any{"utilization_primary": 2.0},
		},
	})))

	tracker := new(mockTracker)
	tracker.On("CommitBatch", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("database unavailable"))

	svc := newTestService(t, registry, tracker, nil)

	_, err := svc.Analyze(context.Background())
	require.Error(t, err, "a failed commit must not produce a report")
}

func TestService_Analyze_FeedsHistoricalRates(t *testing.T) {
	registry := sources.NewRegistry()
	require.NoError(t, registry.Register("static", staticFactory("static", []domain.RawRecord{
		{
			"resource_id": "priced-resource",
			"amount":      720.0,
			"category":    "compute",
			"metrics": map[string]any{
				"unit_type":   "m5.large",
				"unit_rate":   90.0,
				"usage_hours": 10.0,
			},
		},
	})))

	rateStore := new(mockRateStore)
	rateStore.On("LatestRates", mock.Anything).Return([]storemodels.RateObservation{
		{Provider: "static", UnitType: "m5.large", Rate: 100.0},
	}, nil)

	tracker := new(mockTracker)
	tracker.On("CommitBatch", mock.Anything,
		mock.MatchedBy(func(scored []domain.ScoredOpportunity) bool {
			for _, o := range scored {
				if o.Kind == domain.KindPriceReduction {
					return true
				}
			}
			return false
		}),
		mock.MatchedBy(func(observations []storemodels.RateObservation) bool {
			return len(observations) == 1 &&
				observations[0].UnitType == "m5.large" &&
				observations[0].Rate == 90.0
		}),
	).Return(nil)

	svc := newTestService(t, registry, tracker, rateStore)

	report, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Opportunities, 1)
	assert.Equal(t, domain.KindPriceReduction, report.Opportunities[0].Kind)
	assert.InDelta(t, 100.0, report.Opportunities[0].EstimatedImpact, 1e-9,
		"impact is the rate delta times usage hours")

	tracker.AssertExpectations(t)
	rateStore.AssertExpectations(t)
}

func TestService_AnalyzeRecords(t *testing.T) {
	tracker := new(mockTracker)
	tracker.On("CommitBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(t, sources.NewRegistry(), tracker, nil)

	records := []domain.CanonicalRecord{{
		ResourceID: "compute-idle-9",
		Provider:   "static",
		Amount:     80.0,
		Category:   domain.CategoryCompute,
		Metrics:    map[string]any{domain.MetricUtilizationPrimary: 1.0},
	}}

	report, err := svc.AnalyzeRecords(context.Background(), records, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, report.RecordsAnalyzed)
	assert.Equal(t, 2, report.RejectedRecords)
	require.Len(t, report.Opportunities, 1)
}
