package rates

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/cost-radar/pkg/models/store"
	"github.com/de-tools/cost-radar/pkg/store/duckdb"
)

// Store keeps the per-unit rate observations the price-reduction rule
// compares against. Only the latest observation per (provider, unit type)
// pair matters for detection; older rows are kept for audit.
type Store interface {
	LatestRates(ctx context.Context) ([]store.RateObservation, error)
	Record(ctx context.Context, observations []store.RateObservation) error
}

type rateStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &rateStore{db: db}, nil
}

func (s *rateStore) LatestRates(ctx context.Context) ([]store.RateObservation, error) {
	query := `
		SELECT provider, unit_type, rate, observed_at
		FROM rate_history
		QUALIFY ROW_NUMBER() OVER (PARTITION BY provider, unit_type ORDER BY observed_at DESC) = 1`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest rates: %w", err)
	}
	defer rows.Close()

	observations := make([]store.RateObservation, 0)
	for rows.Next() {
		var o store.RateObservation
		if err := rows.Scan(&o.Provider, &o.UnitType, &o.Rate, &o.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan rate observation: %w", err)
		}
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

func (s *rateStore) Record(ctx context.Context, observations []store.RateObservation) error {
	if len(observations) == 0 {
		return nil
	}

	query := `INSERT INTO rate_history (provider, unit_type, rate, observed_at) VALUES (?, ?, ?, ?)`

	tx := duckdb.GetTransaction(ctx)
	var stmt *sql.Stmt
	var err error
	if tx == nil {
		stmt, err = s.db.PrepareContext(ctx, query)
	} else {
		stmt, err = tx.PrepareContext(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range observations {
		if _, err := stmt.ExecContext(ctx, o.Provider, o.UnitType, o.Rate, o.ObservedAt); err != nil {
			return fmt.Errorf("insert rate observation: %w", err)
		}
	}
	return nil
}
