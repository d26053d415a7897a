package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/user"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/cost-radar/pkg/server"
	"github.com/de-tools/cost-radar/pkg/services/analysis"
	"github.com/de-tools/cost-radar/pkg/services/assign"
	"github.com/de-tools/cost-radar/pkg/services/config"
	"github.com/de-tools/cost-radar/pkg/services/lifecycle"
	"github.com/de-tools/cost-radar/pkg/services/normalize"
	"github.com/de-tools/cost-radar/pkg/services/recommend"
	"github.com/de-tools/cost-radar/pkg/services/scoring"
	"github.com/de-tools/cost-radar/pkg/sources"
	"github.com/de-tools/cost-radar/pkg/sources/awsce"
	"github.com/de-tools/cost-radar/pkg/sources/azure"
	"github.com/de-tools/cost-radar/pkg/sources/databricks"
	"github.com/de-tools/cost-radar/pkg/sources/snowflake"
	"github.com/de-tools/cost-radar/pkg/store/duckdb"
	"github.com/de-tools/cost-radar/pkg/store/duckdb/opportunity"
	"github.com/de-tools/cost-radar/pkg/store/duckdb/rates"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

var (
	radarCfgPath string
	profilePath  string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Cost Radar",
		RunE:  runServer,
	}

	usr, _ := user.Current()
	defaultProfile := fmt.Sprintf("%s/.databrickscfg", usr.HomeDir)

	rootCmd.Flags().StringVarP(&radarCfgPath, "config", "c", "",
		"Path to the radar config file (defaults apply when omitted)")
	rootCmd.Flags().StringVarP(&profilePath, "profile", "p", defaultProfile,
		"Path to the provider profile file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	radarCfg, err := config.LoadRadar(radarCfgPath)
	if err != nil {
		return fmt.Errorf("failed to load radar config: %w", err)
	}

	db, err := duckdb.NewDB(duckdb.Settings{
		DbPath: "cost-radar.db",
	})
	if err != nil {
		return fmt.Errorf("failed to create DuckDB instance: %w", err)
	}

	opportunityStore, err := opportunity.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create opportunity store: %w", err)
	}
	rateStore, err := rates.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create rate store: %w", err)
	}

	tracker, err := lifecycle.NewTracker(lifecycle.Config{
		DB:    db,
		Store: opportunityStore,
		Rates: rateStore,
		SLA:   slaPolicies(radarCfg),
	})
	if err != nil {
		return fmt.Errorf("failed to create lifecycle tracker: %w", err)
	}

	normalizer := normalize.NewNormalizer()
	for provider, mapping := range normalize.DefaultMappings() {
		if err := normalizer.Register(provider, mapping); err != nil {
			return fmt.Errorf("failed to register mapping for %s: %w", provider, err)
		}
	}

	assigner, err := assign.NewAssigner(teamEntries(radarCfg))
	if err != nil {
		return fmt.Errorf("failed to create assigner: %w", err)
	}

	registry := sources.NewRegistry()
	factories := map[domain.Provider]sources.Factory{
		domain.ProviderAWS:        awsce.SourceFactory,
		domain.ProviderAzure:      azure.SourceFactory,
		domain.ProviderDatabricks: databricks.SourceFactory,
		domain.ProviderSnowflake:  snowflake.SourceFactory,
	}
	for provider, factory := range factories {
		if err := registry.Register(provider, factory); err != nil {
			return fmt.Errorf("failed to register source for %s: %w", provider, err)
		}
	}

	svc, err := analysis.NewService(analysis.Config{
		Registry:    registry,
		Normalizer:  normalizer,
		Scorer:      scoring.NewScorer(scoringConfig(radarCfg)),
		Assigner:    assigner,
		Tracker:     tracker,
		Rates:       rateStore,
		Detection:   radarCfg.Detection,
		ProfilePath: profilePath,
	})
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}

	mux := server.ConfigureRouter(server.Config{
		Dependencies: server.Dependencies{
			Analysis:  svc,
			Tracker:   tracker,
			Generator: recommend.NewTemplateGenerator(),
			Logger:    logger,
		},
	})

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	addr := net.JoinHostPort(host, port)
	logger.Info().Msgf("starting server on %s", addr)

	return http.ListenAndServe(addr, mux)
}

func scoringConfig(cfg *config.Radar) scoring.Config {
	costs := make(map[domain.Kind]float64, len(cfg.Scoring.ImplementationCostUSD))
	for kind, cost := range cfg.Scoring.ImplementationCostUSD {
		costs[domain.Kind(kind)] = cost
	}
	return scoring.Config{
		ImplementationCostUSD: costs,
		PeriodsPerYear:        cfg.Scoring.PeriodsPerYear,
		LargeImpactUSD:        cfg.Scoring.LargeImpactUSD,
		MediumImpactUSD:       cfg.Scoring.MediumImpactUSD,
		VeryHighRoiPct:        cfg.Scoring.VeryHighRoiPct,
		HighRoiPct:            cfg.Scoring.HighRoiPct,
	}
}

func teamEntries(cfg *config.Radar) []assign.Entry {
	entries := make([]assign.Entry, 0, len(cfg.Teams))
	for _, team := range cfg.Teams {
		entries = append(entries, assign.Entry{Pattern: team.Pattern, Team: team.Team})
	}
	return entries
}

func slaPolicies(cfg *config.Radar) lifecycle.SLAPolicies {
	policies := make(lifecycle.SLAPolicies, len(cfg.SLA))
	for risk, policy := range cfg.SLA {
		policies[domain.RiskLevel(risk)] = policy.Deadline
	}
	return policies
}
