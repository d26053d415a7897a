package rates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cost-radar/pkg/models/store"
	"github.com/de-tools/cost-radar/pkg/store/duckdb"
)

func setupStore(t *testing.T) Store {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)

	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})
	return s
}

func TestRateStore_LatestWinsPerPair(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, []store.RateObservation{
		{Provider: "aws", UnitType: "m5.large", Rate: 0.100, ObservedAt: base},
		{Provider: "aws", UnitType: "m5.large", Rate: 0.096, ObservedAt: base.Add(24 * time.Hour)},
		{Provider: "aws", UnitType: "r6.xlarge", Rate: 0.500, ObservedAt: base},
		{Provider: "databricks", UnitType: "m5.large", Rate: 0.200, ObservedAt: base},
	}))

	latest, err := s.LatestRates(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 3)

	byKey := make(map[string]float64, len(latest))
	for _, o := range latest {
		byKey[o.Provider+"|"+o.UnitType] = o.Rate
	}
	assert.Equal(t, 0.096, byKey["aws|m5.large"], "newer observation wins")
	assert.Equal(t, 0.500, byKey["aws|r6.xlarge"])
	assert.Equal(t, 0.200, byKey["databricks|m5.large"], "pairs are provider scoped")
}

func TestRateStore_EmptyBatch(t *testing.T) {
	s := setupStore(t)

	require.NoError(t, s.Record(context.Background(), nil))

	latest, err := s.LatestRates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, latest)
}
