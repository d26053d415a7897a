package snowflake

import (
	"context"
	"database/sql"
	"fmt"

	sf "github.com/snowflakedb/gosnowflake"
	"github.com/spf13/viper"

	"github.com/de-tools/cost-radar/pkg/models/domain"
	"github.com/de-tools/cost-radar/pkg/sources"
)

// meteringQuery sums warehouse credit usage over the last 30 days. Credits
// are converted to USD by the caller-configured rate.
const meteringQuery = `
	SELECT
		WAREHOUSE_NAME,
		SUM(CREDITS_USED) AS CREDITS_USED,
		SUM(CREDITS_USED) * ? AS AMOUNT_USD
	FROM SNOWFLAKE.ACCOUNT_USAGE.WAREHOUSE_METERING_HISTORY
	WHERE START_TIME >= DATEADD(DAY, -30, CURRENT_TIMESTAMP())
	GROUP BY WAREHOUSE_NAME
`

const defaultCreditRateUSD = 2.0

type source struct {
	db         *sql.DB
	creditRate float64
}

func SourceFactory(_ context.Context, profilePath string) (sources.Source, error) {
	cfg, rate, err := LoadConfig(profilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	dsn, err := sf.DSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &source{db: db, creditRate: rate}, nil
}

// LoadConfig reads a Snowflake profile from the given file.
func LoadConfig(profilePath string) (*sf.Config, float64, error) {
	v := viper.New()
	v.SetConfigFile(profilePath)
	v.SetDefault("credit_rate_usd", defaultCreditRateUSD)

	if err := v.ReadInConfig(); err != nil {
		return nil, 0, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg sf.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, 0, fmt.Errorf("failed to parse snowflake config: %w", err)
	}

	return &cfg, v.GetFloat64("credit_rate_usd"), nil
}

func (s *source) Provider() domain.Provider {
	return domain.ProviderSnowflake
}

func (s *source) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, sources.DefaultFetchTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, meteringQuery, s.creditRate)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouse metering: %w", err)
	}
	defer rows.Close()

	var records []domain.RawRecord
	for rows.Next() {
		var (
			warehouse string
			credits   float64
			amount    float64
		)
		if err := rows.Scan(&warehouse, &credits, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan metering row: %w", err)
		}

		records = append(records, domain.RawRecord{
			"WAREHOUSE_NAME": warehouse,
			"CREDITS_USED":   credits,
			"AMOUNT_USD":     amount,
		})
	}

	return records, rows.Err()
}
