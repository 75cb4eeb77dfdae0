package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/pkg/database"
)

// Integration tests use dates in 1990 so they never collide with real data
var (
	oldDay = time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	newDay = time.Date(1990, 1, 5, 0, 0, 0, 0, time.UTC)
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	require.NoError(t, database.RunMigrations(ctx, url))

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)

	cleanup := func() {
		_, _ = pool.Exec(ctx, "DELETE FROM undervalued_stocks WHERE data_date IN ($1, $2)", oldDay, newDay)
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		pool.Close()
	})

	return NewStore(pool)
}

func score(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestStore_RoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	tech := "Technology"
	n, err := store.Upsert(ctx, []*contracts.FactorSnapshot{
		{Ticker: "zzaa", Date: newDay, Sector: &tech, TotalScore: score(85), Discount: decimal.NewNullDecimal(decimal.RequireFromString("-0.1234")), Profiles: []string{"momentum", "momentum"}},
		{Ticker: "ZZAB", Date: newDay, Sector: &tech, TotalScore: score(85), Profiles: []string{"growth_quality"}},
		{Ticker: "ZZAC", Date: newDay, TotalScore: score(92)},
		{Ticker: "ZZAD", Date: newDay},
		{Ticker: "ZZAA", Date: oldDay, TotalScore: score(10), Profiles: []string{"momentum"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, "zzaa", newDay)
		require.NoError(t, err)
		assert.Equal(t, "ZZAA", got.Ticker)
		assert.Equal(t, newDay, got.Date)
		assert.Equal(t, "-0.1234", got.Discount.Decimal.String())
		assert.False(t, got.Price.Valid)
		assert.ElementsMatch(t, []string{"momentum", "momentum"}, got.Profiles)

		_, err = store.Get(ctx, "ZZZZ", newDay)
		assert.ErrorIs(t, err, contracts.ErrNotFound)
	})

	t.Run("ranked scan", func(t *testing.T) {
		snaps, err := store.Scan(ctx, contracts.Query{
			Filter: contracts.Filter{Date: newDay},
			Order:  contracts.OrderBy(contracts.ScoreTotal),
		})
		require.NoError(t, err)
		require.Len(t, snaps, 3)
		assert.Equal(t, "ZZAC", snaps[0].Ticker)
		assert.Equal(t, "ZZAA", snaps[1].Ticker)
		assert.Equal(t, "ZZAB", snaps[2].Ticker)
	})

	t.Run("profile containment", func(t *testing.T) {
		q := contracts.Query{Filter: contracts.Filter{Date: newDay, Profile: contracts.Some("momentum")}}
		snaps, err := store.Scan(ctx, q)
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, "ZZAA", snaps[0].Ticker)

		count, err := store.Count(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("stats", func(t *testing.T) {
		sectors, err := store.Sectors(ctx, newDay)
		require.NoError(t, err)
		assert.Equal(t, []string{"Technology"}, sectors)

		counts, err := store.CountBySector(ctx, newDay)
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, "Technology", *counts[0].Sector)
		assert.Equal(t, int64(2), counts[0].Count)
		assert.Nil(t, counts[1].Sector)

		avg, err := store.Average(ctx, newDay, contracts.ScoreTotal)
		require.NoError(t, err)
		require.True(t, avg.Valid)
		assert.Equal(t, "87.3333", avg.Decimal.Round(4).String())

		none, err := store.Average(ctx, newDay, contracts.ScoreMomentum)
		require.NoError(t, err)
		assert.False(t, none.Valid)
	})

	t.Run("delete before", func(t *testing.T) {
		removed, err := store.DeleteBefore(ctx, time.Date(1990, 1, 3, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, removed, int64(1))

		_, err = store.Get(ctx, "ZZAA", oldDay)
		assert.ErrorIs(t, err, contracts.ErrNotFound)

		_, err = store.Get(ctx, "ZZAA", newDay)
		assert.NoError(t, err)
	})
}
