package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/internal/store/cached"
	"github.com/moner050/ddal-kkak/backend/internal/store/memory"
	"github.com/moner050/ddal-kkak/backend/internal/store/mysql"
	"github.com/moner050/ddal-kkak/backend/internal/store/postgres"
	"github.com/moner050/ddal-kkak/backend/pkg/config"
	"github.com/moner050/ddal-kkak/backend/pkg/database"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
	"github.com/moner050/ddal-kkak/backend/pkg/redis"
)

// upsertFunc writes snapshots to the underlying store
type upsertFunc func(ctx context.Context, snapshots []*contracts.FactorSnapshot) (int, error)

// backend bundles the configured snapshot store with its cache
// ⭐ SSOT: STORE_DRIVER -> SnapshotStore 조립은 여기서만
type backend struct {
	store  contracts.SnapshotStore // cache-fronted
	upsert upsertFunc
	redis  *redis.Client
	cache  *redis.Cache

	closers []func()
}

// openBackend connects the store selected by cfg.StoreDriver.
// An unreachable Redis degrades to uncached reads.
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	b := &backend{}

	var raw contracts.SnapshotStore
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		b.closers = append(b.closers, db.Close)

		s := postgres.NewStore(db.Pool)
		raw, b.upsert = s, s.Upsert

	case config.DriverMySQL:
		gdb, err := mysql.Open(cfg.MySQL)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			b.closers = append(b.closers, func() { _ = sqlDB.Close() })
		}

		s := mysql.NewStore(gdb)
		raw, b.upsert = s, s.Upsert

	case config.DriverMemory:
		s := memory.New()
		raw = s
		b.upsert = func(ctx context.Context, snapshots []*contracts.FactorSnapshot) (int, error) {
			if err := s.Upsert(ctx, snapshots...); err != nil {
				return 0, err
			}
			return len(snapshots), nil
		}

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, serving without cache")
		rc = redis.Disabled()
	}
	b.redis = rc
	b.closers = append(b.closers, func() { _ = rc.Close() })

	b.cache = redis.NewCache(rc, logger.ServiceName)
	b.store = cached.New(raw, b.cache, cfg.Cache, log)

	log.WithFields(map[string]interface{}{
		"driver": cfg.StoreDriver,
		"cache":  rc.Enabled(),
	}).Info("Snapshot store ready")

	return b, nil
}

// Close releases connections in reverse order of opening
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Import writes snapshots and drops cached snapshot reads
func (b *backend) Import(ctx context.Context, snapshots []*contracts.FactorSnapshot) (int, error) {
	n, err := b.upsert(ctx, snapshots)
	if err != nil {
		return n, err
	}
	if _, err := b.cache.Purge(ctx, redis.SnapshotPattern); err != nil {
		return n, fmt.Errorf("purge cache: %w", err)
	}
	return n, nil
}

// readSnapshots decodes a JSON array of snapshots
func readSnapshots(r io.Reader) ([]*contracts.FactorSnapshot, error) {
	var snapshots []*contracts.FactorSnapshot
	if err := json.NewDecoder(r).Decode(&snapshots); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}

	for i, s := range snapshots {
		if s == nil || s.Ticker == "" {
			return nil, fmt.Errorf("snapshot %d: ticker is required", i)
		}
		if s.Date.IsZero() {
			return nil, fmt.Errorf("snapshot %d (%s): date is required", i, s.Ticker)
		}
	}
	return snapshots, nil
}

// readSnapshotFile reads snapshots from path, or stdin for "-"
func readSnapshotFile(path string) ([]*contracts.FactorSnapshot, error) {
	if path == "-" {
		return readSnapshots(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return readSnapshots(f)
}
