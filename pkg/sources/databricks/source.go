package databricks

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/databricks/databricks-sql-go"

	"github.com/de-tools/cost-radar/pkg/models/domain"
	"github.com/de-tools/cost-radar/pkg/services/config"
	"github.com/de-tools/cost-radar/pkg/sources"
)

const defaultHTTPPath = "/sql/1.0/warehouses/warehouse"

// usageQuery aggregates the last 30 days of system billing usage per
// billable entity, together with the list price in effect.
const usageQuery = `
	SELECT
		COALESCE(u.usage_metadata.warehouse_id, u.usage_metadata.cluster_id, u.usage_metadata.job_id) AS entity_id,
		u.sku_name,
		SUM(u.usage_quantity) AS usage_quantity,
		ANY_VALUE(p.pricing.default) AS rate,
		SUM(u.usage_quantity * p.pricing.default) AS amount
	FROM system.billing.usage u
	JOIN system.billing.list_prices p
		ON u.sku_name = p.sku_name
		AND u.usage_start_time >= p.price_start_time
		AND (p.price_end_time IS NULL OR u.usage_start_time < p.price_end_time)
	WHERE u.usage_start_time >= DATEADD(DAY, -30, CURRENT_TIMESTAMP())
	GROUP BY 1, 2
`

type source struct {
	db *sql.DB
}

func SourceFactory(ctx context.Context, profilePath string) (sources.Source, error) {
	registry, err := config.NewProfileRegistry(profilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load databricks profiles: %w", err)
	}

	profiles, err := registry.GetProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no databricks profiles found in %s", profilePath)
	}

	cfg, err := registry.GetConfig(ctx, profiles[0])
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("token:%s@%s%s", cfg.Token, cfg.Host, defaultHTTPPath)
	db, err := sql.Open("databricks", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Databricks: %w", err)
	}

	return &source{db: db}, nil
}

func (s *source) Provider() domain.Provider {
	return domain.ProviderDatabricks
}

func (s *source) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, sources.DefaultFetchTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, usageQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query billing usage: %w", err)
	}
	defer rows.Close()

	var records []domain.RawRecord
	for rows.Next() {
		var (
			entityID sql.NullString
			skuName  string
			quantity float64
			rate     float64
			amount   float64
		)
		if err := rows.Scan(&entityID, &skuName, &quantity, &rate, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}

		records = append(records, domain.RawRecord{
			"entity_id":      entityID.String,
			"sku_name":       skuName,
			"usage_quantity": quantity,
			"rate":           rate,
			"amount":         amount,
		})
	}

	return records, rows.Err()
}
