// Package memory provides an in-process SnapshotStore used by tests, demos and
// the `STORE_DRIVER=memory` mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/internal/screening"
)

type key struct {
	ticker string
	date   time.Time
}

// Store keeps snapshots in a map keyed by (ticker, date)
type Store struct {
	mu    sync.RWMutex
	snaps map[key]*contracts.FactorSnapshot
	now   func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		snaps: make(map[key]*contracts.FactorSnapshot),
		now:   time.Now,
	}
}

var _ contracts.SnapshotStore = (*Store)(nil)

// Upsert inserts or replaces snapshots by (ticker, date).
// Tickers are upper-cased and dates truncated to the calendar day.
func (s *Store) Upsert(ctx context.Context, snapshots ...*contracts.FactorSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for _, snap := range snapshots {
		if snap == nil {
			continue
		}
		c := snap.Clone()
		c.Ticker = contracts.NormalizeTicker(c.Ticker)
		if c.Ticker == "" {
			return fmt.Errorf("upsert snapshot: empty ticker")
		}
		if c.Date.IsZero() {
			return fmt.Errorf("upsert snapshot %s: missing date", c.Ticker)
		}
		c.Date = contracts.TruncateDate(c.Date)

		k := key{ticker: c.Ticker, date: c.Date}
		if prev, ok := s.snaps[k]; ok {
			c.CreatedAt = prev.CreatedAt
		} else {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
		s.snaps[k] = c
	}
	return nil
}

// Len returns the number of stored snapshots
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}

// LatestDate returns the maximum stored date
func (s *Store) LatestDate(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	for k := range s.snaps {
		if k.date.After(latest) {
			latest = k.date
		}
	}
	if latest.IsZero() {
		return time.Time{}, contracts.ErrNoData
	}
	return latest, nil
}

// Get returns a copy of the snapshot of ticker on date
func (s *Store) Get(ctx context.Context, ticker string, date time.Time) (*contracts.FactorSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[key{ticker: contracts.NormalizeTicker(ticker), date: contracts.TruncateDate(date)}]
	if !ok {
		return nil, fmt.Errorf("%s on %s: %w", ticker, contracts.FormatDate(date), contracts.ErrNotFound)
	}
	return snap.Clone(), nil
}

// Scan filters, orders and windows the snapshots of q.Filter.Date
func (s *Store) Scan(ctx context.Context, q contracts.Query) ([]*contracts.FactorSnapshot, error) {
	matched, err := s.match(ctx, q.Filter)
	if err != nil {
		return nil, err
	}

	window := screening.Window(screening.Arrange(matched, q.Order), q.Offset, q.Limit)
	out := make([]*contracts.FactorSnapshot, len(window))
	for i, snap := range window {
		out[i] = snap.Clone()
	}
	return out, nil
}

// Count returns the size of the unwindowed result of q
func (s *Store) Count(ctx context.Context, q contracts.Query) (int64, error) {
	matched, err := s.match(ctx, q.Filter)
	if err != nil {
		return 0, err
	}
	if q.Order == nil {
		return int64(len(matched)), nil
	}

	var n int64
	for _, snap := range matched {
		if snap.Score(q.Order.Field).Valid {
			n++
		}
	}
	return n, nil
}

// Sectors returns the distinct non-null sectors on date
func (s *Store) Sectors(ctx context.Context, date time.Time) ([]string, error) {
	snaps, err := s.onDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return screening.DistinctSectors(snaps), nil
}

// CountBySector groups the snapshots of date by sector
func (s *Store) CountBySector(ctx context.Context, date time.Time) ([]contracts.SectorCount, error) {
	snaps, err := s.onDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return screening.CountBySector(snaps), nil
}

// Average returns the mean of field over the snapshots of date
func (s *Store) Average(ctx context.Context, date time.Time, field contracts.ScoreField) (decimal.NullDecimal, error) {
	snaps, err := s.onDate(ctx, date)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return screening.AverageScore(snaps, field), nil
}

// DeleteBefore removes every snapshot dated strictly before cutoff
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff = contracts.TruncateDate(cutoff)

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k := range s.snaps {
		if k.date.Before(cutoff) {
			delete(s.snaps, k)
			n++
		}
	}
	return n, nil
}

// Dates returns the distinct stored dates, oldest first
func (s *Store) Dates() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[time.Time]struct{})
	for k := range s.snaps {
		seen[k.date] = struct{}{}
	}
	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (s *Store) match(ctx context.Context, f contracts.Filter) ([]*contracts.FactorSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*contracts.FactorSnapshot, 0)
	for _, snap := range s.snaps {
		if screening.Matches(f, snap) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *Store) onDate(ctx context.Context, date time.Time) ([]*contracts.FactorSnapshot, error) {
	return s.match(ctx, contracts.Filter{Date: contracts.TruncateDate(date)})
}
