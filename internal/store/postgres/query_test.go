package postgres

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

var testDate = time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC)

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name      string
		filter    contracts.Filter
		order     *contracts.Ordering
		wantSQL   string
		wantNArgs int
	}{
		{
			name:      "date only",
			filter:    contracts.Filter{Date: testDate},
			wantSQL:   "data_date = $1",
			wantNArgs: 1,
		},
		{
			name: "profile and sector",
			filter: contracts.Filter{
				Date:    testDate,
				Profile: contracts.Some("momentum"),
				Sector:  contracts.Some("Technology"),
			},
			wantSQL:   "data_date = $1 AND passed_profiles @> ARRAY[$2]::text[] AND sector = $3",
			wantNArgs: 3,
		},
		{
			name: "ranges and discount",
			filter: contracts.Filter{
				Date:         testDate,
				MinScore:     contracts.Some(decimal.NewFromInt(70)),
				MaxScore:     contracts.Some(decimal.NewFromInt(100)),
				MinMarketCap: contracts.Some(decimal.NewFromInt(1000)),
				MaxMarketCap: contracts.Some(decimal.NewFromInt(2000)),
				MaxDiscount:  contracts.Some(decimal.Zero),
			},
			wantSQL:   "data_date = $1 AND total_score >= $2 AND total_score <= $3 AND market_cap >= $4 AND market_cap <= $5 AND discount < $6",
			wantNArgs: 6,
		},
		{
			name:      "ordering excludes nulls",
			filter:    contracts.Filter{Date: testDate},
			order:     contracts.OrderBy(contracts.ScoreDiscount),
			wantSQL:   "data_date = $1 AND discount IS NOT NULL",
			wantNArgs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := buildWhere(tt.filter, tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, w.String())
			assert.Len(t, w.args, tt.wantNArgs)
		})
	}
}

func TestBuildWhere_ZeroScoreIsAConstraint(t *testing.T) {
	w, err := buildWhere(contracts.Filter{Date: testDate, MinScore: contracts.Some(decimal.Zero)}, nil)
	require.NoError(t, err)
	assert.Contains(t, w.String(), "total_score >= $2")
}

func TestBuildScan(t *testing.T) {
	q := contracts.Query{
		Filter: contracts.Filter{Date: testDate, Profile: contracts.Some("momentum")},
		Order:  contracts.OrderBy(contracts.ScoreTotal),
		Offset: 40,
		Limit:  20,
	}

	sql, args, err := buildScan(q)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT ticker, data_date, name,"))
	assert.Contains(t, sql, "WHERE data_date = $1 AND passed_profiles @> ARRAY[$2]::text[] AND total_score IS NOT NULL")
	assert.Contains(t, sql, "ORDER BY total_score DESC, ticker ASC LIMIT $3 OFFSET $4")
	assert.Equal(t, []any{testDate, "momentum", 20, 40}, args)
}

func TestBuildScan_Unlimited(t *testing.T) {
	sql, args, err := buildScan(contracts.Query{Filter: contracts.Filter{Date: testDate}, Limit: 0})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(sql, "ORDER BY ticker ASC"))
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
	assert.Len(t, args, 1)
}

func TestBuildScan_AscendingDiscount(t *testing.T) {
	sql, _, err := buildScan(contracts.Query{
		Filter: contracts.Filter{Date: testDate},
		Order:  contracts.OrderBy(contracts.ScoreDiscount),
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY discount ASC, ticker ASC")
}

func TestBuildScan_RejectsUnknownField(t *testing.T) {
	_, _, err := buildScan(contracts.Query{
		Filter: contracts.Filter{Date: testDate},
		Order:  &contracts.Ordering{Field: "price; DROP TABLE x"},
	})
	assert.Error(t, err)
}

func TestBuildCount(t *testing.T) {
	sql, args, err := buildCount(contracts.Query{
		Filter: contracts.Filter{Date: testDate},
		Order:  contracts.OrderBy(contracts.ScoreTotal),
		Limit:  5,
		Offset: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM undervalued_stocks WHERE data_date = $1 AND total_score IS NOT NULL", sql)
	assert.Len(t, args, 1)
}

func TestBuildUpsert(t *testing.T) {
	sql := buildUpsert()

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO undervalued_stocks (ticker, data_date,"))
	assert.Contains(t, sql, "ON CONFLICT (ticker, data_date) DO UPDATE SET")
	assert.Contains(t, sql, "total_score = EXCLUDED.total_score")
	assert.Contains(t, sql, "updated_at = NOW()")
	assert.NotContains(t, sql, "ticker = EXCLUDED.ticker")
	assert.NotContains(t, sql, "created_at")
	assert.Contains(t, sql, "$"+strconv.Itoa(len(writableColumns))+")")
}

func TestColumns(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range snapshotColumns {
		assert.False(t, seen[c.name], "duplicate column %s", c.name)
		seen[c.name] = true
	}

	// every score field must be a real column
	for _, f := range contracts.ScoreFields {
		assert.True(t, seen[f.Column()], f.Column())
	}

	snap := &contracts.FactorSnapshot{Ticker: "AAPL", TotalScore: decimal.NewNullDecimal(decimal.NewFromInt(85))}
	assert.Len(t, scanTargets(snap), len(snapshotColumns))

	args := insertArgs(snap)
	require.Len(t, args, len(writableColumns))
	assert.Equal(t, "AAPL", args[0])
	assert.Equal(t, snap.TotalScore, args[len(args)-2])
}
