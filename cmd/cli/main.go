package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/de-tools/cost-radar/pkg/models/domain"
	"github.com/de-tools/cost-radar/pkg/runtime/terminal"
	"github.com/de-tools/cost-radar/pkg/services/analysis"
	"github.com/de-tools/cost-radar/pkg/services/assign"
	"github.com/de-tools/cost-radar/pkg/services/config"
	"github.com/de-tools/cost-radar/pkg/services/lifecycle"
	"github.com/de-tools/cost-radar/pkg/services/normalize"
	"github.com/de-tools/cost-radar/pkg/services/scoring"
	"github.com/de-tools/cost-radar/pkg/sources"
	"github.com/de-tools/cost-radar/pkg/sources/awsce"
	"github.com/de-tools/cost-radar/pkg/sources/azure"
	"github.com/de-tools/cost-radar/pkg/sources/databricks"
	"github.com/de-tools/cost-radar/pkg/sources/snowflake"
	"github.com/de-tools/cost-radar/pkg/store/duckdb"
	"github.com/de-tools/cost-radar/pkg/store/duckdb/opportunity"
	"github.com/de-tools/cost-radar/pkg/store/duckdb/rates"
)

func main() {
	svc, registry, err := buildService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli := terminal.NewCLI(terminal.Options{
		Service:  svc,
		Registry: registry,
		Output:   os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildService() (analysis.Service, sources.Registry, error) {
	radarCfg, err := config.LoadRadar(os.Getenv("RADAR_CONFIG"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load radar config: %w", err)
	}

	dbPath := os.Getenv("RADAR_DB")
	if dbPath == "" {
		dbPath = "cost-radar.db"
	}
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}

	opportunityStore, err := opportunity.NewStore(db)
	if err != nil {
		return nil, nil, err
	}
	rateStore, err := rates.NewStore(db)
	if err != nil {
		return nil, nil, err
	}

	policies := make(lifecycle.SLAPolicies, len(radarCfg.SLA))
	for risk, policy := range radarCfg.SLA {
		policies[domain.RiskLevel(risk)] = policy.Deadline
	}
	tracker, err := lifecycle.NewTracker(lifecycle.Config{
		DB:    db,
		Store: opportunityStore,
		Rates: rateStore,
		SLA:   policies,
	})
	if err != nil {
		return nil, nil, err
	}

	normalizer := normalize.NewNormalizer()
	for provider, mapping := range normalize.DefaultMappings() {
		if err := normalizer.Register(provider, mapping); err != nil {
			return nil, nil, err
		}
	}

	entries := make([]assign.Entry, 0, len(radarCfg.Teams))
	for _, team := range radarCfg.Teams {
		entries = append(entries, assign.Entry{Pattern: team.Pattern, Team: team.Team})
	}
	assigner, err := assign.NewAssigner(entries)
	if err != nil {
		return nil, nil, err
	}

	costs := make(map[domain.Kind]float64, len(radarCfg.Scoring.ImplementationCostUSD))
	for kind, cost := range radarCfg.Scoring.ImplementationCostUSD {
		costs[domain.Kind(kind)] = cost
	}
	scorer := scoring.NewScorer(scoring.Config{
		ImplementationCostUSD: costs,
		PeriodsPerYear:        radarCfg.Scoring.PeriodsPerYear,
		LargeImpactUSD:        radarCfg.Scoring.LargeImpactUSD,
		MediumImpactUSD:       radarCfg.Scoring.MediumImpactUSD,
		VeryHighRoiPct:        radarCfg.Scoring.VeryHighRoiPct,
		HighRoiPct:            radarCfg.Scoring.HighRoiPct,
	})

	registry := sources.NewRegistry()
	factories := map[domain.Provider]sources.Factory{
		domain.ProviderAWS:        awsce.SourceFactory,
		domain.ProviderAzure:      azure.SourceFactory,
		domain.ProviderDatabricks: databricks.SourceFactory,
		domain.ProviderSnowflake:  snowflake.SourceFactory,
	}
	for provider, factory := range factories {
		if err := registry.Register(provider, factory); err != nil {
			return nil, nil, err
		}
	}

	profilePath := os.Getenv("RADAR_PROFILE")
	if profilePath == "" {
		usr, uerr := user.Current()
		if uerr == nil {
			profilePath = fmt.Sprintf("%s/.databrickscfg", usr.HomeDir)
		}
	}

	svc, err := analysis.NewService(analysis.Config{
		Registry:    registry,
		Normalizer:  normalizer,
		Scorer:      scorer,
		Assigner:    assigner,
		Tracker:     tracker,
		Rates:       rateStore,
		Detection:   radarCfg.Detection,
		ProfilePath: profilePath,
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, registry, nil
}
