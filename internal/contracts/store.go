package contracts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotStore is the read/prune boundary of the snapshot table
// ⭐ SSOT: 스냅샷 저장소 인터페이스는 여기서만 정의
//
// Implementations return ErrNoData from LatestDate on an empty store, ErrNotFound
// from Get, and wrap I/O failures with ErrStoreUnavailable (see StoreError).
type SnapshotStore interface {
	LatestDate(ctx context.Context) (time.Time, error)
	Get(ctx context.Context, ticker string, date time.Time) (*FactorSnapshot, error)
	Scan(ctx context.Context, q Query) ([]*FactorSnapshot, error)

	// Count ignores q.Offset and q.Limit but honours the null exclusion of q.Order
	Count(ctx context.Context, q Query) (int64, error)

	Sectors(ctx context.Context, date time.Time) ([]string, error)
	CountBySector(ctx context.Context, date time.Time) ([]SectorCount, error)

	// Average returns an invalid NullDecimal when no row has a value for field
	Average(ctx context.Context, date time.Time, field ScoreField) (decimal.NullDecimal, error)

	// DeleteBefore removes every snapshot dated strictly before cutoff
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
