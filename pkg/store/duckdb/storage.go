package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const OpportunityTableSchema = `
	CREATE TABLE IF NOT EXISTS opportunities (
		key VARCHAR NOT NULL PRIMARY KEY,
		kind VARCHAR NOT NULL,
		resource_id VARCHAR NOT NULL,
		provider VARCHAR NOT NULL,
		current_value DOUBLE,
		estimated_impact DOUBLE,
		evidence JSON,
		priority_score INTEGER,
		roi_percent DOUBLE,
		roi_unbounded BOOLEAN,
		payback_periods DOUBLE,
		risk_level VARCHAR,
		assigned_owner VARCHAR,
		confidence DOUBLE,
		status VARCHAR NOT NULL,
		sla_deadline TIMESTAMP NULL,
		version BIGINT NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

const TransitionTableSchema = `
	CREATE TABLE IF NOT EXISTS opportunity_transitions (
		id VARCHAR NOT NULL PRIMARY KEY,
		opportunity_key VARCHAR NOT NULL,
		from_status VARCHAR NOT NULL,
		to_status VARCHAR NOT NULL,
		actor VARCHAR NOT NULL,
		occurred_at TIMESTAMP NOT NULL
	);
`

const RateHistoryTableSchema = `
	CREATE TABLE IF NOT EXISTS rate_history (
		provider VARCHAR NOT NULL,
		unit_type VARCHAR NOT NULL,
		rate DOUBLE NOT NULL,
		observed_at TIMESTAMP NOT NULL
	);
`

var bootQueries = []string{
	OpportunityTableSchema,
	TransitionTableSchema,
	RateHistoryTableSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
