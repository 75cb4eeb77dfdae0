// Package retention deletes snapshot dates that fell out of the retention window.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
)

// ErrInvalidKeepDays is returned for a non-positive retention window
var ErrInvalidKeepDays = errors.New("keep days must be positive")

// Result reports one prune run
type Result struct {
	Cutoff  time.Time `json:"cutoff"`
	Deleted int64     `json:"deleted"`
}

// Pruner removes whole snapshot dates older than a cutoff.
// It is the only write path the service owns.
// ⭐ SSOT: 스냅샷 보관 기간 정리는 여기서만
type Pruner struct {
	store    contracts.SnapshotStore
	keepDays int
	now      func() time.Time
	log      *logger.Logger
}

// NewPruner creates a pruner keeping the last keepDays calendar days
func NewPruner(store contracts.SnapshotStore, keepDays int, log *logger.Logger) *Pruner {
	return &Pruner{
		store:    store,
		keepDays: keepDays,
		now:      time.Now,
		log:      log.WithComponent("retention"),
	}
}

// KeepDays returns the configured retention window
func (p *Pruner) KeepDays() int {
	return p.keepDays
}

// CutoffFor returns the first date kept when pruning keepDays days back from now
func CutoffFor(now time.Time, keepDays int) time.Time {
	return contracts.TruncateDate(now).AddDate(0, 0, -keepDays)
}

// Prune deletes every snapshot dated strictly before cutoff
func (p *Pruner) Prune(ctx context.Context, cutoff time.Time) (Result, error) {
	cutoff = contracts.TruncateDate(cutoff)
	log := p.log.WithField("cutoff", contracts.FormatDate(cutoff))

	deleted, err := p.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		log.WithError(err).Error("Failed to prune snapshots")
		return Result{Cutoff: cutoff}, fmt.Errorf("prune before %s: %w", contracts.FormatDate(cutoff), err)
	}

	log.WithField("deleted", deleted).Info("Pruned snapshots")
	return Result{Cutoff: cutoff, Deleted: deleted}, nil
}

// PruneKeepDays prunes everything older than keepDays days before today
func (p *Pruner) PruneKeepDays(ctx context.Context, keepDays int) (Result, error) {
	if keepDays <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidKeepDays, keepDays)
	}
	return p.Prune(ctx, CutoffFor(p.now(), keepDays))
}

// PruneExpired prunes with the configured window
func (p *Pruner) PruneExpired(ctx context.Context) (Result, error) {
	return p.PruneKeepDays(ctx, p.keepDays)
}
