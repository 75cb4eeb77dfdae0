package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

func day(s string) time.Time {
	t, err := contracts.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStore_Upsert(t *testing.T) {
	ctx := context.Background()
	store := New()

	clock := time.Date(2025, 11, 7, 6, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	first := &contracts.FactorSnapshot{
		Ticker:     "aapl",
		Date:       time.Date(2025, 11, 7, 21, 0, 0, 0, time.UTC),
		TotalScore: decimal.NewNullDecimal(decimal.NewFromInt(80)),
	}
	require.NoError(t, store.Upsert(ctx, first))
	assert.Equal(t, "aapl", first.Ticker, "input is not modified")

	clock = clock.Add(time.Hour)
	second := &contracts.FactorSnapshot{
		Ticker:     "AAPL",
		Date:       day("2025-11-07"),
		TotalScore: decimal.NewNullDecimal(decimal.NewFromInt(90)),
	}
	require.NoError(t, store.Upsert(ctx, second))

	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, "AAPL", day("2025-11-07"))
	require.NoError(t, err)
	assert.Equal(t, "90", got.TotalScore.Decimal.String())
	assert.Equal(t, time.Date(2025, 11, 7, 6, 0, 0, 0, time.UTC), got.CreatedAt)
	assert.Equal(t, clock, got.UpdatedAt)
}

func TestStore_UpsertRejectsIncompleteIdentity(t *testing.T) {
	ctx := context.Background()
	store := New()

	assert.Error(t, store.Upsert(ctx, &contracts.FactorSnapshot{Ticker: " ", Date: day("2025-11-07")}))
	assert.Error(t, store.Upsert(ctx, &contracts.FactorSnapshot{Ticker: "AAPL"}))
	assert.NoError(t, store.Upsert(ctx, nil))
	assert.Zero(t, store.Len())
}

func TestStore_Count(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Upsert(ctx,
		&contracts.FactorSnapshot{Ticker: "A", Date: day("2025-11-07"), TotalScore: decimal.NewNullDecimal(decimal.NewFromInt(1))},
		&contracts.FactorSnapshot{Ticker: "B", Date: day("2025-11-07")},
		&contracts.FactorSnapshot{Ticker: "C", Date: day("2025-11-06"), TotalScore: decimal.NewNullDecimal(decimal.NewFromInt(1))},
	))

	f := contracts.Filter{Date: day("2025-11-07")}

	all, err := store.Count(ctx, contracts.Query{Filter: f})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all)

	ranked, err := store.Count(ctx, contracts.Query{Filter: f, Order: contracts.OrderBy(contracts.ScoreTotal), Limit: 1, Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ranked, "null scores are excluded and the window is ignored")
}

func TestStore_Dates(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Upsert(ctx,
		&contracts.FactorSnapshot{Ticker: "A", Date: day("2025-11-07")},
		&contracts.FactorSnapshot{Ticker: "B", Date: day("2025-10-31")},
		&contracts.FactorSnapshot{Ticker: "C", Date: day("2025-11-07")},
	))

	assert.Equal(t, []time.Time{day("2025-10-31"), day("2025-11-07")}, store.Dates())
}

func TestStore_DeleteBefore(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Upsert(ctx,
		&contracts.FactorSnapshot{Ticker: "A", Date: day("2025-10-31")},
		&contracts.FactorSnapshot{Ticker: "A", Date: day("2025-11-01")},
		&contracts.FactorSnapshot{Ticker: "A", Date: day("2025-11-07")},
	))

	n, err := store.DeleteBefore(ctx, time.Date(2025, 11, 1, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []time.Time{day("2025-11-01"), day("2025-11-07")}, store.Dates())
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := New()
	_, err := store.LatestDate(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Scan(ctx, contracts.Query{Filter: contracts.Filter{Date: day("2025-11-07")}})
	assert.ErrorIs(t, err, context.Canceled)
}
