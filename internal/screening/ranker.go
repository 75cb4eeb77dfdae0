package screening

import (
	"sort"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

// Rank orders snapshots by o.Field in o.Direction, breaking ties by ticker
// ascending. Snapshots with a null o.Field are dropped. The input slice is not
// modified.
// ⭐ SSOT: 랭킹 정렬 규칙(동점 시 티커 오름차순)은 여기서만
func Rank(snapshots []*contracts.FactorSnapshot, o contracts.Ordering) []*contracts.FactorSnapshot {
	ranked := make([]*contracts.FactorSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s.Score(o.Field).Valid {
			ranked = append(ranked, s)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		return Less(ranked[i], ranked[j], o)
	})

	return ranked
}

// Less is the total order used by Rank
func Less(a, b *contracts.FactorSnapshot, o contracts.Ordering) bool {
	av := a.Score(o.Field).Decimal
	bv := b.Score(o.Field).Decimal

	if c := av.Cmp(bv); c != 0 {
		if o.Direction == contracts.Ascending {
			return c < 0
		}
		return c > 0
	}
	return a.Ticker < b.Ticker
}

// Arrange applies an optional ordering: nil orders by ticker ascending and
// keeps every row.
func Arrange(snapshots []*contracts.FactorSnapshot, o *contracts.Ordering) []*contracts.FactorSnapshot {
	if o != nil {
		return Rank(snapshots, *o)
	}

	out := append([]*contracts.FactorSnapshot(nil), snapshots...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ticker < out[j].Ticker
	})
	return out
}
