package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/cost-radar/pkg/adapters"
	"github.com/de-tools/cost-radar/pkg/models/domain"
	storemodels "github.com/de-tools/cost-radar/pkg/models/store"
	"github.com/de-tools/cost-radar/pkg/store/duckdb"
	"github.com/de-tools/cost-radar/pkg/store/duckdb/opportunity"
	"github.com/de-tools/cost-radar/pkg/store/duckdb/rates"
)

// SLAPolicies maps a risk level to the remediation window granted at
// assignment time. Kinds without a policy get no deadline.
type SLAPolicies map[domain.RiskLevel]time.Duration

// Service is the tracking surface the pipeline and the API consume.
type Service interface {
	CommitBatch(ctx context.Context, scored []domain.ScoredOpportunity, observations []storemodels.RateObservation) error
	Transition(ctx context.Context, key string, to domain.Status, actor string) (*domain.ScoredOpportunity, error)
	Assign(ctx context.Context, key string, owner string, confidence float64, actor string) (*domain.ScoredOpportunity, error)
	Get(ctx context.Context, key string) (*domain.ScoredOpportunity, error)
	List(ctx context.Context, filter opportunity.Filter) ([]domain.ScoredOpportunity, error)
	SLAStats(ctx context.Context) (domain.SLAStats, error)
}

// Tracker owns every status and SLA-deadline change after an opportunity is
// created. Scoring and assignment results flow through it so human decisions
// recorded in the store survive re-analysis.
type Tracker struct {
	db    *sql.DB
	store opportunity.Store
	rates rates.Store
	sla   SLAPolicies
	now   func() time.Time
}

type Config struct {
	DB    *sql.DB
	Store opportunity.Store
	Rates rates.Store
	SLA   SLAPolicies
	Now   func() time.Time // defaults to time.Now
}

func NewTracker(cfg Config) (Service, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("opportunity store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		db:    cfg.DB,
		store: cfg.Store,
		rates: cfg.Rates,
		sla:   cfg.SLA,
		now:   now,
	}, nil
}

// commitRetries bounds re-merge attempts when a human status write races a
// batch commit on the same row.
const commitRetries = 3

// CommitBatch persists one analysis run atomically: either every scored
// opportunity and rate observation lands, or none do. Statuses of existing
// rows carry forward; a deferred opportunity that re-fired reopens to
// scored, a rejected one stays rejected. Each row is read and written under
// the batch transaction with a version-guarded upsert, so a concurrent
// human transition is never silently reverted: the batch re-reads the row
// and merges against the status the human just wrote.
func (t *Tracker) CommitBatch(
	ctx context.Context,
	scored []domain.ScoredOpportunity,
	observations []storemodels.RateObservation,
) error {
	logger := zerolog.Ctx(ctx)

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	txCtx := duckdb.WithTransaction(ctx, tx)
	var reopened int
	for _, o := range scored {
		reopen, err := t.commitOne(txCtx, o)
		if err != nil {
			return fmt.Errorf("persist opportunity %s: %w", o.Key(), err)
		}
		if reopen {
			reopened++
		}
	}
	if t.rates != nil {
		if err := t.rates.Record(txCtx, observations); err != nil {
			return fmt.Errorf("record rate observations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	logger.Info().
		Int("opportunities", len(scored)).
		Int("reopened", reopened).
		Msg("analysis batch committed")
	return nil
}

// commitOne merges one scored opportunity against the stored row and writes
// it with the version observed at read time as the guard. A conflict means
// another writer advanced the row after our read; re-read and merge again.
func (t *Tracker) commitOne(ctx context.Context, o domain.ScoredOpportunity) (bool, error) {
	for attempt := 0; attempt < commitRetries; attempt++ {
		row := adapters.MapDomainOpportunityToStore(o)
		row.Version = 1

		var expectedVersion int64
		var reopen *storemodels.Transition

		existing, err := t.store.Get(ctx, row.Key)
		if err != nil && !errors.Is(err, opportunity.ErrNotFound) {
			return false, fmt.Errorf("load existing opportunity: %w", err)
		}
		if existing != nil {
			expectedVersion = existing.Version
			row.Version = existing.Version + 1
			row.AssignedOwner = existing.AssignedOwner
			row.Confidence = existing.Confidence
			row.SLADeadline = existing.SLADeadline

			switch domain.Status(existing.Status) {
			case domain.StatusDeferred:
				row.Status = string(domain.StatusScored)
				reopen = &storemodels.Transition{
					ID:             uuid.NewString(),
					OpportunityKey: row.Key,
					FromStatus:     existing.Status,
					ToStatus:       row.Status,
					Actor:          domain.ActorSystem,
					At:             t.now(),
				}
			default:
				row.Status = existing.Status
			}
		}

		err = t.store.Upsert(ctx, row, expectedVersion)
		if errors.Is(err, opportunity.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return false, err
		}

		if reopen != nil {
			if err := t.store.AddTransition(ctx, *reopen); err != nil {
				return false, fmt.Errorf("record reopen transition: %w", err)
			}
			return true, nil
		}
		return false, nil
	}
	return false, opportunity.ErrVersionConflict
}

// Transition moves one opportunity through the state machine on behalf of
// an actor. Version conflicts from a concurrent writer surface as
// opportunity.ErrVersionConflict.
func (t *Tracker) Transition(ctx context.Context, key string, to domain.Status, actor string) (*domain.ScoredOpportunity, error) {
	if actor == "" {
		actor = domain.ActorSystem
	}

	existing, err := t.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	from := domain.Status(existing.Status)
	if err := ValidateTransition(from, to, actor); err != nil {
		return nil, err
	}

	transition := storemodels.Transition{
		ID:             uuid.NewString(),
		OpportunityKey: key,
		FromStatus:     string(from),
		ToStatus:       string(to),
		Actor:          actor,
		At:             t.now(),
	}
	if err := t.store.UpdateStatus(ctx, key, string(to), existing.Version, transition); err != nil {
		return nil, err
	}

	existing.Status = string(to)
	existing.Version++
	updated := adapters.MapStoreOpportunityToDomain(*existing)
	return &updated, nil
}

// Assign records an owner and attaches the SLA deadline the risk-level
// policy dictates. An empty owner is valid and means the opportunity still
// requires manual assignment; it does not advance the state machine.
func (t *Tracker) Assign(ctx context.Context, key string, owner string, confidence float64, actor string) (*domain.ScoredOpportunity, error) {
	existing, err := t.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var deadline *time.Time
	if owner != "" {
		if window, ok := t.sla[domain.RiskLevel(existing.RiskLevel)]; ok {
			d := t.now().Add(window)
			deadline = &d
		}
	}

	if err := t.store.SetOwner(ctx, key, owner, confidence, deadline, existing.Version); err != nil {
		return nil, err
	}
	existing.AssignedOwner = owner
	existing.Confidence = confidence
	existing.SLADeadline = deadline
	existing.Version++

	if owner != "" && domain.Status(existing.Status) == domain.StatusScored {
		updated, err := t.Transition(ctx, key, domain.StatusAssigned, actor)
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	updated := adapters.MapStoreOpportunityToDomain(*existing)
	return &updated, nil
}

// Get returns one tracked opportunity.
func (t *Tracker) Get(ctx context.Context, key string) (*domain.ScoredOpportunity, error) {
	row, err := t.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	o := adapters.MapStoreOpportunityToDomain(*row)
	return &o, nil
}

// List returns tracked opportunities in ranking order.
func (t *Tracker) List(ctx context.Context, filter opportunity.Filter) ([]domain.ScoredOpportunity, error) {
	rows, err := t.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	opportunities := make([]domain.ScoredOpportunity, 0, len(rows))
	for _, row := range rows {
		opportunities = append(opportunities, adapters.MapStoreOpportunityToDomain(row))
	}
	return opportunities, nil
}

// SLAStats derives deadline compliance across all tracked opportunities.
// Overdue is computed at read time and never stored.
func (t *Tracker) SLAStats(ctx context.Context) (domain.SLAStats, error) {
	opportunities, err := t.List(ctx, opportunity.Filter{})
	if err != nil {
		return domain.SLAStats{}, err
	}

	now := t.now()
	stats := domain.SLAStats{Total: len(opportunities)}
	for _, o := range opportunities {
		if o.SLADeadline == nil {
			continue
		}
		stats.WithDeadline++
		if o.Overdue(now) {
			stats.Overdue++
		} else {
			stats.WithinSLA++
		}
	}
	if stats.WithDeadline > 0 {
		stats.ComplianceRate = float64(stats.WithinSLA) / float64(stats.WithDeadline) * 100
	}
	return stats, nil
}
