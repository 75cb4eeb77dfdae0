package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/pkg/config"
)

// dryRunStore renders SQL without a server
func dryRunStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/screener?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	return NewStore(db)
}

func TestStore_FilteredSQL(t *testing.T) {
	store := dryRunStore(t)

	q := contracts.Query{
		Filter: contracts.Filter{
			Date:        time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC),
			Profile:     contracts.Some("momentum"),
			Sector:      contracts.Some("Technology"),
			MinScore:    contracts.Some(decimal.NewFromInt(70)),
			MaxDiscount: contracts.Some(decimal.Zero),
		},
		Order: contracts.OrderBy(contracts.ScoreTotal),
	}

	tx, err := store.filtered(context.Background(), q)
	require.NoError(t, err)

	stmt := tx.Find(&[]SnapshotModel{}).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, "FROM `undervalued_stocks`")
	assert.Contains(t, sql, "JSON_CONTAINS(passed_profiles, ?)")
	assert.Contains(t, sql, "sector = ?")
	assert.Contains(t, sql, "total_score >= ?")
	assert.Contains(t, sql, "discount < ?")
	assert.Contains(t, sql, "total_score IS NOT NULL")
	assert.Contains(t, stmt.Vars, `"momentum"`)
}

func TestStore_FilteredRejectsUnknownField(t *testing.T) {
	store := dryRunStore(t)

	_, err := store.filtered(context.Background(), contracts.Query{
		Filter: contracts.Filter{Date: time.Now()},
		Order:  &contracts.Ordering{Field: "price"},
	})
	assert.Error(t, err)
}

func TestStore_Integration(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" || testing.Short() {
		t.Skip("MYSQL_DSN not set, skipping integration test")
	}

	db, err := Open(config.MySQLConfig{DSN: dsn, MaxOpenConns: 5, MaxIdleConns: 1, ConnMaxLifetime: time.Hour, AutoMigrate: true})
	require.NoError(t, err)

	store := NewStore(db)
	ctx := context.Background()

	day := time.Date(1990, 1, 5, 0, 0, 0, 0, time.UTC)
	old := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	cleanup := func() {
		db.Where("data_date IN ?", []time.Time{day, old}).Delete(&SnapshotModel{})
	}
	cleanup()
	t.Cleanup(cleanup)

	n, err := store.Upsert(ctx, []*contracts.FactorSnapshot{
		{Ticker: "ZZAA", Date: day, TotalScore: decimal.NewNullDecimal(decimal.NewFromInt(80)), Profiles: []string{"momentum"}},
		{Ticker: "ZZAB", Date: day, TotalScore: decimal.NewNullDecimal(decimal.NewFromInt(90)), Profiles: []string{"swing", "momentum"}},
		{Ticker: "ZZAC", Date: day, Profiles: []string{"value_basic"}},
		{Ticker: "ZZAA", Date: old},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	snaps, err := store.Scan(ctx, contracts.Query{
		Filter: contracts.Filter{Date: day, Profile: contracts.Some("momentum")},
		Order:  contracts.OrderBy(contracts.ScoreTotal),
	})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "ZZAB", snaps[0].Ticker)
	assert.Equal(t, "ZZAA", snaps[1].Ticker)

	got, err := store.Get(ctx, "zzac", day)
	require.NoError(t, err)
	assert.Equal(t, []string{"value_basic"}, got.Profiles)

	_, err = store.Get(ctx, "NOPE", day)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	removed, err := store.DeleteBefore(ctx, time.Date(1990, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	_, err = store.Get(ctx, "ZZAA", old)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}
