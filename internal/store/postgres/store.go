// Package postgres implements the snapshot store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

// Store reads and prunes the undervalued_stocks table
// ⭐ SSOT: Postgres 스냅샷 조회/삭제는 여기서만
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store over pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ contracts.SnapshotStore = (*Store)(nil)

// LatestDate returns MAX(data_date)
func (s *Store) LatestDate(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := s.pool.QueryRow(ctx, "SELECT MAX(data_date) FROM "+table).Scan(&latest)
	if err != nil {
		return time.Time{}, contracts.StoreError("latest date", err)
	}
	if latest == nil {
		return time.Time{}, contracts.ErrNoData
	}
	return contracts.TruncateDate(*latest), nil
}

// Get returns the snapshot of ticker on date
func (s *Store) Get(ctx context.Context, ticker string, date time.Time) (*contracts.FactorSnapshot, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE ticker = $1 AND data_date = $2", selectList, table)

	snap := &contracts.FactorSnapshot{}
	err := s.pool.QueryRow(ctx, query, contracts.NormalizeTicker(ticker), contracts.TruncateDate(date)).Scan(scanTargets(snap)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s on %s: %w", ticker, contracts.FormatDate(date), contracts.ErrNotFound)
	}
	if err != nil {
		return nil, contracts.StoreError("get snapshot", err)
	}

	normalize(snap)
	return snap, nil
}

// Scan runs the filtered, ordered, windowed query q
func (s *Store) Scan(ctx context.Context, q contracts.Query) ([]*contracts.FactorSnapshot, error) {
	query, args, err := buildScan(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, contracts.StoreError("scan snapshots", err)
	}
	defer rows.Close()

	snaps := make([]*contracts.FactorSnapshot, 0)
	for rows.Next() {
		snap := &contracts.FactorSnapshot{}
		if err := rows.Scan(scanTargets(snap)...); err != nil {
			return nil, contracts.StoreError("scan snapshot row", err)
		}
		normalize(snap)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, contracts.StoreError("iterate snapshots", err)
	}

	return snaps, nil
}

// Count returns the number of rows q matches before windowing
func (s *Store) Count(ctx context.Context, q contracts.Query) (int64, error) {
	query, args, err := buildCount(q)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, contracts.StoreError("count snapshots", err)
	}
	return n, nil
}

// Sectors returns the distinct non-null sectors on date
func (s *Store) Sectors(ctx context.Context, date time.Time) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT sector FROM %s
		WHERE data_date = $1 AND sector IS NOT NULL
		ORDER BY sector
	`, table)

	rows, err := s.pool.Query(ctx, query, contracts.TruncateDate(date))
	if err != nil {
		return nil, contracts.StoreError("list sectors", err)
	}
	defer rows.Close()

	sectors := make([]string, 0)
	for rows.Next() {
		var sector string
		if err := rows.Scan(&sector); err != nil {
			return nil, contracts.StoreError("scan sector", err)
		}
		sectors = append(sectors, sector)
	}
	if err := rows.Err(); err != nil {
		return nil, contracts.StoreError("iterate sectors", err)
	}

	return sectors, nil
}

// CountBySector groups the snapshots of date by sector, largest first
func (s *Store) CountBySector(ctx context.Context, date time.Time) ([]contracts.SectorCount, error) {
	query := fmt.Sprintf(`
		SELECT sector, COUNT(*) FROM %s
		WHERE data_date = $1
		GROUP BY sector
		ORDER BY COUNT(*) DESC, sector ASC NULLS LAST
	`, table)

	rows, err := s.pool.Query(ctx, query, contracts.TruncateDate(date))
	if err != nil {
		return nil, contracts.StoreError("count by sector", err)
	}
	defer rows.Close()

	counts := make([]contracts.SectorCount, 0)
	for rows.Next() {
		var c contracts.SectorCount
		if err := rows.Scan(&c.Sector, &c.Count); err != nil {
			return nil, contracts.StoreError("scan sector count", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, contracts.StoreError("iterate sector counts", err)
	}

	return counts, nil
}

// Average returns AVG(field) over date
func (s *Store) Average(ctx context.Context, date time.Time, field contracts.ScoreField) (decimal.NullDecimal, error) {
	col, err := scoreColumn(field)
	if err != nil {
		return decimal.NullDecimal{}, err
	}

	query := fmt.Sprintf("SELECT AVG(%s) FROM %s WHERE data_date = $1", col, table)

	var avg decimal.NullDecimal
	if err := s.pool.QueryRow(ctx, query, contracts.TruncateDate(date)).Scan(&avg); err != nil {
		return decimal.NullDecimal{}, contracts.StoreError("average "+col, err)
	}
	return avg, nil
}

// DeleteBefore removes every snapshot dated strictly before cutoff
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+table+" WHERE data_date < $1", contracts.TruncateDate(cutoff))
	if err != nil {
		return 0, contracts.StoreError("delete before cutoff", err)
	}
	return tag.RowsAffected(), nil
}

// Upsert writes snapshots in one batch, replacing rows with the same
// (ticker, data_date). Returns the number of rows written.
func (s *Store) Upsert(ctx context.Context, snapshots []*contracts.FactorSnapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	query := buildUpsert()

	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		row := snap.Clone()
		row.Ticker = contracts.NormalizeTicker(row.Ticker)
		row.Date = contracts.TruncateDate(row.Date)
		if row.Profiles == nil {
			row.Profiles = []string{}
		}
		batch.Queue(query, insertArgs(row)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return count, contracts.StoreError("upsert snapshot", err)
		}
		count++
	}

	return count, nil
}

// normalize fixes up scanned values the driver leaves in a non-canonical form
func normalize(s *contracts.FactorSnapshot) {
	s.Date = contracts.TruncateDate(s.Date)
	if s.Profiles == nil {
		s.Profiles = []string{}
	}
}
