package screening

import (
	"context"
	"time"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

// DateResolver pins the snapshot date of a logical request
type DateResolver struct {
	store contracts.SnapshotStore
}

// NewDateResolver creates a resolver over store
func NewDateResolver(store contracts.SnapshotStore) *DateResolver {
	return &DateResolver{store: store}
}

// Latest returns the maximum snapshot date, or contracts.ErrNoData
func (r *DateResolver) Latest(ctx context.Context) (time.Time, error) {
	latest, err := r.store.LatestDate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return contracts.TruncateDate(latest), nil
}

// Resolve returns the explicit date when present, otherwise the latest date.
// Call it once per request and reuse the result for every sub-query.
func (r *DateResolver) Resolve(ctx context.Context, date contracts.Optional[time.Time]) (time.Time, error) {
	if d, ok := date.Get(); ok {
		return contracts.TruncateDate(d), nil
	}
	return r.Latest(ctx)
}
