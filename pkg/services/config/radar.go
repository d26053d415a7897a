package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Radar is the tunable configuration of the analysis pipeline. The detection
// thresholds and scoring constants are heuristics, not calibrated values, so
// every one of them can be overridden from the config file.
type Radar struct {
	Detection DetectionConfig      `mapstructure:"detection"`
	Scoring   ScoringConfig        `mapstructure:"scoring"`
	Teams     []TeamPattern        `mapstructure:"teams"`
	SLA       map[string]SLAPolicy `mapstructure:"sla"` // keyed by risk level
}

type DetectionConfig struct {
	IdleUtilizationPct     float64 `mapstructure:"idle_utilization_pct"`      // idle below this
	OverProvisionedPct     float64 `mapstructure:"over_provisioned_pct"`      // both axes below this
	RightSizingFactor      float64 `mapstructure:"right_sizing_factor"`       // share of cost saved by downsizing
	PriceDropRatio         float64 `mapstructure:"price_drop_ratio"`          // fires when current < historical * ratio
	CommitmentFloorUSD     float64 `mapstructure:"commitment_floor_usd"`      // sustained spend floor for commitments
	CommitmentMinLineItems int     `mapstructure:"commitment_min_line_items"` // line items needed to call spend sustained
	CommitmentSavingsRate  float64 `mapstructure:"commitment_savings_rate"`   // share of cost saved by committing
}

type ScoringConfig struct {
	ImplementationCostUSD map[string]float64 `mapstructure:"implementation_cost_usd"` // keyed by kind
	PeriodsPerYear        float64            `mapstructure:"periods_per_year"`
	LargeImpactUSD        float64            `mapstructure:"large_impact_usd"`
	MediumImpactUSD       float64            `mapstructure:"medium_impact_usd"`
	VeryHighRoiPct        float64            `mapstructure:"very_high_roi_pct"`
	HighRoiPct            float64            `mapstructure:"high_roi_pct"`
}

type TeamPattern struct {
	Pattern string `mapstructure:"pattern"`
	Team    string `mapstructure:"team"`
}

type SLAPolicy struct {
	Deadline time.Duration `mapstructure:"deadline"`
}

// LoadRadar reads the radar config file, falling back to defaults for any
// missing key. An empty path yields the defaults.
func LoadRadar(path string) (*Radar, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read radar config: %w", err)
		}
	}

	var cfg Radar
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse radar config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("detection.idle_utilization_pct", 5.0)
	v.SetDefault("detection.over_provisioned_pct", 20.0)
	v.SetDefault("detection.right_sizing_factor", 0.5)
	v.SetDefault("detection.price_drop_ratio", 0.95)
	v.SetDefault("detection.commitment_floor_usd", 100.0)
	v.SetDefault("detection.commitment_min_line_items", 20)
	v.SetDefault("detection.commitment_savings_rate", 0.4)

	v.SetDefault("scoring.implementation_cost_usd", map[string]float64{
		"idle_resource":       25,
		"over_provisioned":    100,
		"unattached_asset":    10,
		"price_reduction":     0,
		"reserved_commitment": 200,
	})
	v.SetDefault("scoring.periods_per_year", 12.0)
	v.SetDefault("scoring.large_impact_usd", 500.0)
	v.SetDefault("scoring.medium_impact_usd", 50.0)
	v.SetDefault("scoring.very_high_roi_pct", 400.0)
	v.SetDefault("scoring.high_roi_pct", 100.0)

	v.SetDefault("sla", map[string]any{
		"high":   map[string]any{"deadline": "168h"},  // 7 days
		"medium": map[string]any{"deadline": "720h"},  // 30 days
		"low":    map[string]any{"deadline": "2160h"}, // 90 days
	})

	v.SetDefault("teams", []map[string]any{
		{"pattern": "kubernetes", "team": "platform"},
		{"pattern": "k8s", "team": "platform"},
		{"pattern": "cluster", "team": "platform"},
		{"pattern": "warehouse", "team": "data"},
		{"pattern": "database", "team": "data"},
		{"pattern": "rds", "team": "data"},
		{"pattern": "postgres", "team": "data"},
		{"pattern": "storage", "team": "infra"},
		{"pattern": "volume", "team": "infra"},
		{"pattern": "vol-", "team": "infra"},
		{"pattern": "network", "team": "infra"},
		{"pattern": "compute", "team": "backend"},
		{"pattern": "api", "team": "backend"},
	})
}
