package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moner050/ddal-kkak/backend/pkg/config"
)

// connectTimeout bounds the first ping of a new pool
const connectTimeout = 5 * time.Second

// DB owns the pgx pool behind the Postgres snapshot store
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// Open builds the pool from cfg and fails unless the server answers a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// poolConfig maps the DB_* settings onto a pgxpool config.
// MinConns never exceeds MaxConns.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pc.MinConns = int32(min(cfg.MinConns, int(pc.MaxConns)))
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	return pc, nil
}

// Close releases the pool. Safe to call twice.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Health is what `screener test-db` prints
type Health struct {
	Healthy      bool
	Timestamp    time.Time
	ResponseTime time.Duration
	Stats        PoolStats
}

// PoolStats is the subset of pgxpool.Stat worth reporting
type PoolStats struct {
	MaxConns        int32
	TotalConns      int32
	AcquiredConns   int32
	IdleConns       int32
	AcquireCount    int64
	AcquireDuration time.Duration
}

// Check pings the server and snapshots the pool counters
func (db *DB) Check(ctx context.Context) (Health, error) {
	h := Health{Timestamp: time.Now()}
	if err := db.Pool.Ping(ctx); err != nil {
		return h, fmt.Errorf("ping database: %w", err)
	}
	h.ResponseTime = time.Since(h.Timestamp)
	h.Healthy = true

	st := db.Pool.Stat()
	h.Stats = PoolStats{
		MaxConns:        st.MaxConns(),
		TotalConns:      st.TotalConns(),
		AcquiredConns:   st.AcquiredConns(),
		IdleConns:       st.IdleConns(),
		AcquireCount:    st.AcquireCount(),
		AcquireDuration: st.AcquireDuration(),
	}
	return h, nil
}
