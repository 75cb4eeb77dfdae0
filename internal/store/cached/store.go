// Package cached decorates a snapshot store with a Redis read-through cache
// for the latest date and the aggregates of settled (older) dates.
package cached

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/pkg/config"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
	"github.com/moner050/ddal-kkak/backend/pkg/redis"
)

// Store caches the slow, rarely changing reads of the wrapped store.
// Row reads (Get, Scan, Count) always go to the wrapped store.
// ⭐ SSOT: 스냅샷 캐시 정책은 여기서만
type Store struct {
	next  contracts.SnapshotStore
	cache *redis.Cache
	ttl   config.CacheConfig
	log   *logger.Logger
}

// New wraps next. With a disabled cache every call passes straight through.
func New(next contracts.SnapshotStore, cache *redis.Cache, ttl config.CacheConfig, log *logger.Logger) *Store {
	return &Store{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.WithComponent("snapshot-cache"),
	}
}

var _ contracts.SnapshotStore = (*Store)(nil)

// LatestDate is cached for LatestTTL; a new ingest becomes visible once it expires.
// ErrNoData is never cached.
func (s *Store) LatestDate(ctx context.Context) (time.Time, error) {
	return redis.Remember(ctx, s.cache, redis.LatestDateKey, s.ttl.LatestTTL, func() (time.Time, error) {
		return s.next.LatestDate(ctx)
	})
}

func (s *Store) Get(ctx context.Context, ticker string, date time.Time) (*contracts.FactorSnapshot, error) {
	return s.next.Get(ctx, ticker, date)
}

func (s *Store) Scan(ctx context.Context, q contracts.Query) ([]*contracts.FactorSnapshot, error) {
	return s.next.Scan(ctx, q)
}

func (s *Store) Count(ctx context.Context, q contracts.Query) (int64, error) {
	return s.next.Count(ctx, q)
}

// Sectors, CountBySector and Average are cached only for settled dates
func (s *Store) Sectors(ctx context.Context, date time.Time) ([]string, error) {
	if !s.settled(ctx, date) {
		return s.next.Sectors(ctx, date)
	}
	key := redis.SectorsKey(contracts.FormatDate(date))
	return redis.Remember(ctx, s.cache, key, s.ttl.StatsTTL, func() ([]string, error) {
		return s.next.Sectors(ctx, date)
	})
}

func (s *Store) CountBySector(ctx context.Context, date time.Time) ([]contracts.SectorCount, error) {
	if !s.settled(ctx, date) {
		return s.next.CountBySector(ctx, date)
	}
	key := redis.SectorCountsKey(contracts.FormatDate(date))
	return redis.Remember(ctx, s.cache, key, s.ttl.StatsTTL, func() ([]contracts.SectorCount, error) {
		return s.next.CountBySector(ctx, date)
	})
}

func (s *Store) Average(ctx context.Context, date time.Time, field contracts.ScoreField) (decimal.NullDecimal, error) {
	if !s.settled(ctx, date) {
		return s.next.Average(ctx, date, field)
	}
	key := redis.AverageKey(contracts.FormatDate(date), string(field))
	return redis.Remember(ctx, s.cache, key, s.ttl.StatsTTL, func() (decimal.NullDecimal, error) {
		return s.next.Average(ctx, date, field)
	})
}

// settled reports whether date is strictly before the latest date. The latest
// date may still be filled in by ingestion (scores and profiles are written
// after the rows), so only older dates are treated as immutable.
func (s *Store) settled(ctx context.Context, date time.Time) bool {
	if !s.cache.Enabled() {
		return false
	}
	latest, err := s.LatestDate(ctx)
	if err != nil {
		return false
	}
	return contracts.TruncateDate(date).Before(latest)
}

// DeleteBefore prunes the wrapped store, then drops every cached snapshot key.
// A purge failure is logged; stale entries expire with their TTL.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.next.DeleteBefore(ctx, cutoff)
	if err != nil {
		return deleted, err
	}

	if purged, err := s.cache.Purge(ctx, redis.SnapshotPattern); err != nil {
		s.log.WithError(err).Warn("failed to purge snapshot cache")
	} else if purged > 0 {
		s.log.WithField("keys", purged).Debug("purged snapshot cache")
	}

	return deleted, nil
}
