package opportunity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/cost-radar/pkg/models/store"
	"github.com/de-tools/cost-radar/pkg/store/duckdb"
)

// ErrVersionConflict signals a lost optimistic-lock race on a status write.
// The caller re-reads and retries or surfaces the conflict.
var ErrVersionConflict = errors.New("opportunity version conflict")

// ErrNotFound signals an unknown opportunity key.
var ErrNotFound = errors.New("opportunity not found")

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Status   string
	Risk     string
	Owner    string
	Provider string
}

type Store interface {
	Get(ctx context.Context, key string) (*store.Opportunity, error)
	List(ctx context.Context, filter Filter) ([]store.Opportunity, error)
	// Upsert inserts a new row or, on key conflict, updates it only when the
	// stored version still equals expectedVersion. Pass 0 for a row expected
	// to be new; a concurrent writer surfaces as ErrVersionConflict.
	Upsert(ctx context.Context, row store.Opportunity, expectedVersion int64) error
	// UpdateStatus writes a status change guarded by the row's version and
	// records the attributed transition in the same statement batch.
	UpdateStatus(ctx context.Context, key string, to string, expectedVersion int64, transition store.Transition) error
	AddTransition(ctx context.Context, transition store.Transition) error
	SetOwner(ctx context.Context, key string, owner string, confidence float64, slaDeadline *time.Time, expectedVersion int64) error
}

type opportunityStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &opportunityStore{db: db}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *opportunityStore) exec(ctx context.Context) execer {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *opportunityStore) query(ctx context.Context) querier {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx
	}
	return s.db
}

const opportunityColumns = `
	key, kind, resource_id, provider, current_value, estimated_impact,
	CAST(evidence AS VARCHAR), priority_score, roi_percent, roi_unbounded,
	payback_periods, risk_level, assigned_owner, confidence, status,
	sla_deadline, version
`

func (s *opportunityStore) Get(ctx context.Context, key string) (*store.Opportunity, error) {
	query := fmt.Sprintf(`SELECT %s FROM opportunities WHERE key = ?`, opportunityColumns)

	row := s.query(ctx).QueryRowContext(ctx, query, key)
	opportunity, err := scanOpportunity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return opportunity, nil
}

func (s *opportunityStore) List(ctx context.Context, filter Filter) ([]store.Opportunity, error) {
	query := fmt.Sprintf(`SELECT %s FROM opportunities WHERE 1=1`, opportunityColumns)
	var args []any

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Risk != "" {
		query += " AND risk_level = ?"
		args = append(args, filter.Risk)
	}
	if filter.Owner != "" {
		query += " AND assigned_owner = ?"
		args = append(args, filter.Owner)
	}
	if filter.Provider != "" {
		query += " AND provider = ?"
		args = append(args, filter.Provider)
	}
	query += " ORDER BY priority_score DESC, estimated_impact DESC, resource_id ASC"

	rows, err := s.query(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	records := make([]store.Opportunity, 0)
	for rows.Next() {
		opportunity, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		records = append(records, *opportunity)
	}
	return records, rows.Err()
}

func (s *opportunityStore) Upsert(ctx context.Context, row store.Opportunity, expectedVersion int64) error {
	evidence, err := json.Marshal(row.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}

	query := `
		INSERT INTO opportunities (
			key, kind, resource_id, provider, current_value, estimated_impact,
			evidence, priority_score, roi_percent, roi_unbounded, payback_periods,
			risk_level, assigned_owner, confidence, status, sla_deadline, version, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())
		ON CONFLICT (key) DO UPDATE SET
			current_value = excluded.current_value,
			estimated_impact = excluded.estimated_impact,
			evidence = excluded.evidence,
			priority_score = excluded.priority_score,
			roi_percent = excluded.roi_percent,
			roi_unbounded = excluded.roi_unbounded,
			payback_periods = excluded.payback_periods,
			risk_level = excluded.risk_level,
			assigned_owner = excluded.assigned_owner,
			confidence = excluded.confidence,
			status = excluded.status,
			sla_deadline = excluded.sla_deadline,
			version = excluded.version,
			updated_at = now()
		WHERE opportunities.version = ?`

	result, err := s.exec(ctx).ExecContext(ctx, query,
		row.Key,
		row.Kind,
		row.ResourceID,
		row.Provider,
		row.CurrentValue,
		row.EstimatedImpact,
		string(evidence),
		row.PriorityScore,
		row.RoiPercent,
		row.RoiUnbounded,
		row.PaybackPeriods,
		row.RiskLevel,
		row.AssignedOwner,
		row.Confidence,
		row.Status,
		nullTime(row.SLADeadline),
		row.Version,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("upsert opportunity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert opportunity: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *opportunityStore) UpdateStatus(
	ctx context.Context,
	key string,
	to string,
	expectedVersion int64,
	transition store.Transition,
) error {
	query := `
		UPDATE opportunities
		SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE key = ? AND version = ?`

	result, err := s.exec(ctx).ExecContext(ctx, query, to, key, expectedVersion)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	return s.AddTransition(ctx, transition)
}

func (s *opportunityStore) AddTransition(ctx context.Context, transition store.Transition) error {
	insert := `
		INSERT INTO opportunity_transitions (id, opportunity_key, from_status, to_status, actor, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.exec(ctx).ExecContext(ctx, insert,
		transition.ID,
		transition.OpportunityKey,
		transition.FromStatus,
		transition.ToStatus,
		transition.Actor,
		transition.At,
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

func (s *opportunityStore) SetOwner(
	ctx context.Context,
	key string,
	owner string,
	confidence float64,
	slaDeadline *time.Time,
	expectedVersion int64,
) error {
	query := `
		UPDATE opportunities
		SET assigned_owner = ?, confidence = ?, sla_deadline = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE key = ? AND version = ?`

	result, err := s.exec(ctx).ExecContext(ctx, query, owner, confidence, nullTime(slaDeadline), key, expectedVersion)
	if err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// nullTime adapts an optional timestamp for binding; the driver rejects a
// raw *time.Time.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func scanOpportunity(row scannable) (*store.Opportunity, error) {
	var (
		o           store.Opportunity
		evidenceRaw sql.NullString
		owner       sql.NullString
		deadline    sql.NullTime
	)

	err := row.Scan(
		&o.Key,
		&o.Kind,
		&o.ResourceID,
		&o.Provider,
		&o.CurrentValue,
		&o.EstimatedImpact,
		&evidenceRaw,
		&o.PriorityScore,
		&o.RoiPercent,
		&o.RoiUnbounded,
		&o.PaybackPeriods,
		&o.RiskLevel,
		&owner,
		&o.Confidence,
		&o.Status,
		&deadline,
		&o.Version,
	)
	if err != nil {
		return nil, err
	}

	if evidenceRaw.Valid && evidenceRaw.String != "" {
		if err := json.Unmarshal([]byte(evidenceRaw.String), &o.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshal evidence: %w", err)
		}
	}
	o.AssignedOwner = owner.String
	if deadline.Valid {
		t := deadline.Time
		o.SLADeadline = &t
	}
	return &o, nil
}
