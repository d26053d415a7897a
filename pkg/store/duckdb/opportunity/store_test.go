package opportunity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cost-radar/pkg/models/store"
	"github.com/de-tools/cost-radar/pkg/store/duckdb"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)

	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:    db,
		store: s,
	}
}

func sampleRow(key string) store.Opportunity {
	return store.Opportunity{
		Key:             key,
		Kind:            "idle_resource",
		ResourceID:      "i-0001",
		Provider:        "aws",
		CurrentValue:    500,
		EstimatedImpact: 500,
		Evidence:        map[string]any{"utilization_primary": 2.0},
		PriorityScore:   100,
		RoiPercent:      1900,
		PaybackPeriods:  0.6,
		RiskLevel:       "low",
		Status:          "scored",
		Version:         1,
	}
}

func TestOpportunityStore_UpsertAndGet(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	row := sampleRow("idle_resource|aws|i-0001")
	require.NoError(t, f.store.Upsert(ctx, row, 0))

	got, err := f.store.Get(ctx, row.Key)
	require.NoError(t, err)
	assert.Equal(t, row.Key, got.Key)
	assert.Equal(t, row.PriorityScore, got.PriorityScore)
	assert.Equal(t, row.Status, got.Status)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, 2.0, got.Evidence["utilization_primary"])

	// Second upsert updates in place and carries the new score.
	row.PriorityScore = 80
	row.Version = 2
	require.NoError(t, f.store.Upsert(ctx, row, 1))

	got, err = f.store.Get(ctx, row.Key)
	require.NoError(t, err)
	assert.Equal(t, 80, got.PriorityScore)
	assert.Equal(t, int64(2), got.Version)

	var count int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM opportunities").Scan(&count))
	assert.Equal(t, 1, count, "same key must not duplicate")
}

func TestOpportunityStore_UpsertVersionConflict(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	row := sampleRow("k1")
	require.NoError(t, f.store.Upsert(ctx, row, 0))

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := row
		stale.PriorityScore = 10
		stale.Version = 1
		require.ErrorIs(t, f.store.Upsert(ctx, stale, 5), ErrVersionConflict)

		got, err := f.store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, 100, got.PriorityScore, "stale write must not land")
	})

	t.Run("unexpected existing row conflicts", func(t *testing.T) {
		require.ErrorIs(t, f.store.Upsert(ctx, sampleRow("k1"), 0), ErrVersionConflict)
	})
}

func TestOpportunityStore_GetNotFound(t *testing.T) {
	f := setupFixture(t)

	_, err := f.store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpportunityStore_List(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	rows := []store.Opportunity{
		{Key: "k1", Kind: "idle_resource", ResourceID: "bravo", Provider: "aws",
			EstimatedImpact: 600, PriorityScore: 100, RiskLevel: "low", Status: "scored", Version: 1},
		{Key: "k2", Kind: "idle_resource", ResourceID: "alpha", Provider: "aws",
			EstimatedImpact: 600, PriorityScore: 100, RiskLevel: "low", Status: "scored", Version: 1},
		{Key: "k3", Kind: "unattached_asset", ResourceID: "vol-1", Provider: "azure",
			EstimatedImpact: 30, PriorityScore: 50, RiskLevel: "low", Status: "assigned",
			AssignedOwner: "infra", Version: 1},
	}
	for _, row := range rows {
		require.NoError(t, f.store.Upsert(ctx, row, 0))
	}

	t.Run("ranking order", func(t *testing.T) {
		listed, err := f.store.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, listed, 3)
		assert.Equal(t, "k2", listed[0].Key, "resource id ascending breaks the tie")
		assert.Equal(t, "k1", listed[1].Key)
		assert.Equal(t, "k3", listed[2].Key)
	})

	t.Run("filter by status", func(t *testing.T) {
		listed, err := f.store.List(ctx, Filter{Status: "assigned"})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "k3", listed[0].Key)
	})

	t.Run("filter by owner and provider", func(t *testing.T) {
		listed, err := f.store.List(ctx, Filter{Owner: "infra", Provider: "azure"})
		require.NoError(t, err)
		require.Len(t, listed, 1)

		listed, err = f.store.List(ctx, Filter{Owner: "infra", Provider: "aws"})
		require.NoError(t, err)
		assert.Empty(t, listed)
	})
}

func TestOpportunityStore_UpdateStatus(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	row := sampleRow("k1")
	require.NoError(t, f.store.Upsert(ctx, row, 0))

	transition := store.Transition{
		ID:             "t-1",
		OpportunityKey: "k1",
		FromStatus:     "scored",
		ToStatus:       "assigned",
		Actor:          "alice",
		At:             time.Now().UTC(),
	}

	require.NoError(t, f.store.UpdateStatus(ctx, "k1", "assigned", 1, transition))

	got, err := f.store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "assigned", got.Status)
	assert.Equal(t, int64(2), got.Version)

	var transitions int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM opportunity_transitions WHERE opportunity_key = ?", "k1").Scan(&transitions))
	assert.Equal(t, 1, transitions)

	t.Run("stale version conflicts", func(t *testing.T) {
		err := f.store.UpdateStatus(ctx, "k1", "approved", 1, transition)
		require.ErrorIs(t, err, ErrVersionConflict)
	})
}

func TestOpportunityStore_SetOwner(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	row := sampleRow("k1")
	require.NoError(t, f.store.Upsert(ctx, row, 0))

	deadline := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.store.SetOwner(ctx, "k1", "platform", 0.9, &deadline, 1))

	got, err := f.store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "platform", got.AssignedOwner)
	assert.Equal(t, 0.9, got.Confidence)
	require.NotNil(t, got.SLADeadline)
	assert.True(t, got.SLADeadline.Equal(deadline))
	assert.Equal(t, int64(2), got.Version)

	t.Run("stale version conflicts", func(t *testing.T) {
		err := f.store.SetOwner(ctx, "k1", "someone", 0.5, nil, 1)
		require.ErrorIs(t, err, ErrVersionConflict)
	})
}

func TestOpportunityStore_TransactionRollback(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	tx, err := f.db.BeginTx(ctx, nil)
	require.NoError(t, err)

	txCtx := duckdb.WithTransaction(ctx, tx)
	require.NoError(t, f.store.Upsert(txCtx, sampleRow("k-tx"), 0))
	require.NoError(t, tx.Rollback())

	_, err = f.store.Get(ctx, "k-tx")
	require.ErrorIs(t, err, ErrNotFound, "rolled back writes must not be visible")
}
