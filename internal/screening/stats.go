package screening

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

// averagePlaces is the precision of reported score averages
const averagePlaces = 4

// StatsAggregator derives counts and averages for one resolved date
type StatsAggregator struct {
	store contracts.SnapshotStore
}

// NewStatsAggregator creates an aggregator over store
func NewStatsAggregator(store contracts.SnapshotStore) *StatsAggregator {
	return &StatsAggregator{store: store}
}

// Total returns the number of snapshots on date
func (a *StatsAggregator) Total(ctx context.Context, date time.Time) (int64, error) {
	return a.count(ctx, date, FilterParams{})
}

// ProfileCount returns the number of snapshots on date tagged with profile
func (a *StatsAggregator) ProfileCount(ctx context.Context, date time.Time, profile string) (int64, error) {
	return a.count(ctx, date, FilterParams{Profile: contracts.Some(profile)})
}

func (a *StatsAggregator) count(ctx context.Context, date time.Time, params FilterParams) (int64, error) {
	f, err := BuildFilter(date, params)
	if err != nil {
		return 0, err
	}
	return a.store.Count(ctx, contracts.Query{Filter: f})
}

// SectorCounts returns per-sector counts on date, largest first
func (a *StatsAggregator) SectorCounts(ctx context.Context, date time.Time) ([]contracts.SectorCount, error) {
	counts, err := a.store.CountBySector(ctx, contracts.TruncateDate(date))
	if err != nil {
		return nil, err
	}
	SortSectorCounts(counts)
	return counts, nil
}

// AverageTotalScore returns the mean total score on date, or zero when no
// snapshot on date has a total score.
func (a *StatsAggregator) AverageTotalScore(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	avg, err := a.store.Average(ctx, contracts.TruncateDate(date), contracts.ScoreTotal)
	if err != nil {
		return decimal.Zero, err
	}
	if !avg.Valid {
		return decimal.Zero, nil
	}
	return avg.Decimal.Round(averagePlaces), nil
}

// Summary is the statistics block of one date
type Summary struct {
	Date              time.Time
	TotalStocks       int64
	AverageTotalScore decimal.Decimal
	ProfileCounts     map[string]int64
	SectorCounts      []contracts.SectorCount
}

// Summarize collects every statistic for the same pinned date
func (a *StatsAggregator) Summarize(ctx context.Context, date time.Time, profiles []string) (*Summary, error) {
	total, err := a.Total(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("count snapshots: %w", err)
	}

	avg, err := a.AverageTotalScore(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("average total score: %w", err)
	}

	profileCounts := make(map[string]int64, len(profiles))
	for _, p := range profiles {
		n, err := a.ProfileCount(ctx, date, p)
		if err != nil {
			return nil, fmt.Errorf("count profile %s: %w", p, err)
		}
		profileCounts[p] = n
	}

	sectors, err := a.SectorCounts(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("count sectors: %w", err)
	}

	return &Summary{
		Date:              contracts.TruncateDate(date),
		TotalStocks:       total,
		AverageTotalScore: avg,
		ProfileCounts:     profileCounts,
		SectorCounts:      sectors,
	}, nil
}

// CountBySector groups snapshots by sector in memory
func CountBySector(snapshots []*contracts.FactorSnapshot) []contracts.SectorCount {
	counts := make(map[string]int64)
	var unclassified int64
	for _, s := range snapshots {
		if s.Sector == nil {
			unclassified++
			continue
		}
		counts[*s.Sector]++
	}

	out := make([]contracts.SectorCount, 0, len(counts)+1)
	for sector, n := range counts {
		name := sector
		out = append(out, contracts.SectorCount{Sector: &name, Count: n})
	}
	if unclassified > 0 {
		out = append(out, contracts.SectorCount{Sector: nil, Count: unclassified})
	}

	SortSectorCounts(out)
	return out
}

// SortSectorCounts orders by count descending, then sector name ascending,
// with the unclassified group last among equal counts
func SortSectorCounts(counts []contracts.SectorCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		a, b := counts[i], counts[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Sector == nil || b.Sector == nil {
			return b.Sector == nil && a.Sector != nil
		}
		return *a.Sector < *b.Sector
	})
}

// AverageScore is the in-memory mean of field over snapshots with a value
func AverageScore(snapshots []*contracts.FactorSnapshot, field contracts.ScoreField) decimal.NullDecimal {
	sum := decimal.Zero
	n := int64(0)
	for _, s := range snapshots {
		v := s.Score(field)
		if !v.Valid {
			continue
		}
		sum = sum.Add(v.Decimal)
		n++
	}
	if n == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(n)))
}

// DistinctSectors returns the sorted non-null sectors of snapshots
func DistinctSectors(snapshots []*contracts.FactorSnapshot) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range snapshots {
		if s.Sector == nil {
			continue
		}
		if _, ok := seen[*s.Sector]; ok {
			continue
		}
		seen[*s.Sector] = struct{}{}
		out = append(out, *s.Sector)
	}
	sort.Strings(out)
	return out
}
