package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/cost-radar/pkg/models/domain"
	storemodels "github.com/de-tools/cost-radar/pkg/models/store"
	"github.com/de-tools/cost-radar/pkg/services/assign"
	"github.com/de-tools/cost-radar/pkg/services/config"
	"github.com/de-tools/cost-radar/pkg/services/lifecycle"
	"github.com/de-tools/cost-radar/pkg/services/normalize"
	"github.com/de-tools/cost-radar/pkg/services/rules"
	"github.com/de-tools/cost-radar/pkg/services/scoring"
	"github.com/de-tools/cost-radar/pkg/sources"
	"github.com/de-tools/cost-radar/pkg/store/duckdb/rates"
)

// Service runs the full pipeline: fetch, normalize, detect, score, assign,
// commit. One provider failing never fails the batch; it becomes a warning
// on the report and the remaining providers proceed.
type Service interface {
	Ingest(ctx context.Context, provider domain.Provider, raw []domain.RawRecord) (domain.IngestSummary, error)
	Analyze(ctx context.Context) (*domain.AnalysisReport, error)
	AnalyzeRecords(ctx context.Context, records []domain.CanonicalRecord, rejected int) (*domain.AnalysisReport, error)
}

type service struct {
	registry    sources.Registry
	normalizer  *normalize.Normalizer
	scorer      *scoring.Scorer
	assigner    *assign.Assigner
	tracker     lifecycle.Service
	rates       rates.Store
	detection   config.DetectionConfig
	profilePath string
	now         func() time.Time
}

type Config struct {
	Registry    sources.Registry
	Normalizer  *normalize.Normalizer
	Scorer      *scoring.Scorer
	Assigner    *assign.Assigner
	Tracker     lifecycle.Service
	Rates       rates.Store
	Detection   config.DetectionConfig
	ProfilePath string
	Now         func() time.Time // defaults to time.Now
}

func NewService(cfg Config) (Service, error) {
	if cfg.Registry == nil || cfg.Normalizer == nil || cfg.Scorer == nil ||
		cfg.Assigner == nil || cfg.Tracker == nil {
		return nil, fmt.Errorf("registry, normalizer, scorer, assigner and tracker are required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		registry:    cfg.Registry,
		normalizer:  cfg.Normalizer,
		scorer:      cfg.Scorer,
		assigner:    cfg.Assigner,
		tracker:     cfg.Tracker,
		rates:       cfg.Rates,
		detection:   cfg.Detection,
		profilePath: cfg.ProfilePath,
		now:         now,
	}, nil
}

// Ingest normalizes a raw batch for one provider without running detection.
func (s *service) Ingest(ctx context.Context, provider domain.Provider, raw []domain.RawRecord) (domain.IngestSummary, error) {
	return s.normalizer.Normalize(ctx, provider, raw)
}

type providerBatch struct {
	summary domain.IngestSummary
	warning *domain.Warning
}

// Analyze fetches every registered provider concurrently, normalizes the
// batches and runs detection over the combined record set.
func (s *service) Analyze(ctx context.Context) (*domain.AnalysisReport, error) {
	logger := zerolog.Ctx(ctx)
	providers := s.registry.ListProviders()

	batches := make([]providerBatch, len(providers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, provider := range providers {
		g.Go(func() error {
			summary, err := s.fetchAndNormalize(gctx, provider)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn().Err(err).Str("provider", string(provider)).
					Msg("provider fetch failed, continuing without it")
				batches[i] = providerBatch{warning: &domain.Warning{
					Provider: provider,
					Message:  err.Error(),
				}}
				return nil
			}
			batches[i] = providerBatch{summary: summary}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []domain.CanonicalRecord
	var rejected int
	var warnings []domain.Warning
	for _, batch := range batches {
		if batch.warning != nil {
			warnings = append(warnings, *batch.warning)
			continue
		}
		records = append(records, batch.summary.Records...)
		rejected += batch.summary.RejectedCount
	}

	report, err := s.analyze(ctx, records, rejected)
	if err != nil {
		return nil, err
	}
	report.Warnings = warnings
	return report, nil
}

// AnalyzeRecords runs detection over an already-normalized record set, as
// supplied by the ingestion entry point.
func (s *service) AnalyzeRecords(ctx context.Context, records []domain.CanonicalRecord, rejected int) (*domain.AnalysisReport, error) {
	return s.analyze(ctx, records, rejected)
}

func (s *service) fetchAndNormalize(ctx context.Context, provider domain.Provider) (domain.IngestSummary, error) {
	source, err := s.registry.Create(ctx, provider, s.profilePath)
	if err != nil {
		return domain.IngestSummary{}, &domain.ProviderUnavailableError{Provider: provider, Err: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, sources.DefaultFetchTimeout)
	defer cancel()

	raw, err := source.Fetch(fetchCtx)
	if err != nil {
		return domain.IngestSummary{}, &domain.ProviderUnavailableError{Provider: provider, Err: err}
	}
	return s.normalizer.Normalize(ctx, provider, raw)
}

func (s *service) analyze(ctx context.Context, records []domain.CanonicalRecord, rejected int) (*domain.AnalysisReport, error) {
	historical, err := s.historicalRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load historical rates: %w", err)
	}

	engine, err := rules.NewEngine(
		rules.NewIdleRule(s.detection.IdleUtilizationPct),
		rules.NewOverProvisionedRule(s.detection.OverProvisionedPct, s.detection.RightSizingFactor),
		rules.NewUnattachedRule(),
		rules.NewPriceDropRule(s.detection.PriceDropRatio, historical),
		rules.NewReservedRule(
			s.detection.CommitmentFloorUSD,
			s.detection.CommitmentMinLineItems,
			s.detection.CommitmentSavingsRate,
		),
	)
	if err != nil {
		return nil, err
	}

	candidates, err := engine.Detect(ctx, records)
	if err != nil {
		return nil, err
	}

	opportunities, err := s.scorer.ScoreAll(candidates)
	if err != nil {
		return nil, err
	}
	for i := range opportunities {
		assignment := s.assigner.Assign(opportunities[i])
		opportunities[i].AssignedOwner = assignment.Owner
		opportunities[i].Confidence = assignment.Confidence
	}

	if err := s.tracker.CommitBatch(ctx, opportunities, s.observedRates(records)); err != nil {
		return nil, err
	}

	report := s.buildReport(records, rejected, opportunities)
	zerolog.Ctx(ctx).Info().
		Int("records", len(records)).
		Int("rejected", rejected).
		Int("opportunities", len(opportunities)).
		Float64("potential_savings", report.PotentialSavings).
		Msg("analysis complete")
	return report, nil
}

func (s *service) historicalRates(ctx context.Context) (rules.RateLookup, error) {
	lookup := rules.RateLookup{}
	if s.rates == nil {
		return lookup, nil
	}

	observations, err := s.rates.LatestRates(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range observations {
		lookup[rules.RateKey(domain.Provider(o.Provider), o.UnitType)] = o.Rate
	}
	return lookup, nil
}

// observedRates extracts the unit rates present in this batch so the next
// analysis run can compare against them. First observation per
// (provider, unit type) pair wins within a batch.
func (s *service) observedRates(records []domain.CanonicalRecord) []storemodels.RateObservation {
	now := s.now()
	seen := make(map[string]struct{})
	var observations []storemodels.RateObservation

	for _, record := range records {
		unitType, ok := record.MetricString(domain.MetricUnitType)
		if !ok || unitType == "" {
			continue
		}
		rate, ok := record.MetricFloat(domain.MetricUnitRate)
		if !ok || rate <= 0 {
			continue
		}
		key := rules.RateKey(record.Provider, unitType)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		observations = append(observations, storemodels.RateObservation{
			Provider:   string(record.Provider),
			UnitType:   unitType,
			Rate:       rate,
			ObservedAt: now,
		})
	}
	return observations
}

func (s *service) buildReport(
	records []domain.CanonicalRecord,
	rejected int,
	opportunities []domain.ScoredOpportunity,
) *domain.AnalysisReport {
	report := &domain.AnalysisReport{
		ByProvider:      make(map[domain.Provider]float64),
		ByCategory:      make(map[string]float64),
		RecordsAnalyzed: len(records),
		RejectedRecords: rejected,
		Opportunities:   opportunities,
		AnalyzedAt:      s.now(),
	}

	for _, record := range records {
		report.TotalAmount += record.Amount
		report.ByProvider[record.Provider] += record.Amount
		report.ByCategory[record.Category] += record.Amount
	}
	for _, o := range opportunities {
		report.PotentialSavings += o.EstimatedImpact
	}
	if report.TotalAmount > 0 {
		report.SavingsPercent = report.PotentialSavings / report.TotalAmount * 100
	}
	return report
}
