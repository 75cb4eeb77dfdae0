package contracts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Optional is an explicit present/absent wrapper for query parameters.
// The zero value is absent; a present zero (score 0, discount 0) is a real constraint.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present
func (o Optional[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value if present, otherwise def
func (o Optional[T]) OrElse(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// ScoreField names a rankable column of a snapshot
type ScoreField string

const (
	ScoreTotal    ScoreField = "total"
	ScoreGrowth   ScoreField = "growth"
	ScoreQuality  ScoreField = "quality"
	ScoreValue    ScoreField = "value"
	ScoreMomentum ScoreField = "momentum"
	ScoreDiscount ScoreField = "discount"
)

// ScoreFields lists every rankable field
var ScoreFields = []ScoreField{
	ScoreTotal, ScoreGrowth, ScoreQuality, ScoreValue, ScoreMomentum, ScoreDiscount,
}

// ParseScoreField parses a ranking field name ("total", "growth", ..., "discount")
func ParseScoreField(s string) (ScoreField, error) {
	f := ScoreField(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("unknown score field %q", s)
	}
	return f, nil
}

// IsValid reports whether f is one of ScoreFields
func (f ScoreField) IsValid() bool {
	for _, known := range ScoreFields {
		if f == known {
			return true
		}
	}
	return false
}

// Column returns the storage column backing the field
func (f ScoreField) Column() string {
	switch f {
	case ScoreDiscount:
		return "discount"
	default:
		return string(f) + "_score"
	}
}

// Direction is the sort direction of a ranking
type Direction int

const (
	Descending Direction = iota
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "ASC"
	}
	return "DESC"
}

// DefaultDirection returns the natural ranking direction of the field:
// scores rank highest first, discount ranks most undervalued (lowest) first.
func (f ScoreField) DefaultDirection() Direction {
	if f == ScoreDiscount {
		return Ascending
	}
	return Descending
}

// Ordering ranks rows by Field in Direction; ties are always broken by ticker ascending.
// Rows whose Field is null are excluded from an ordered result.
type Ordering struct {
	Field     ScoreField
	Direction Direction
}

// OrderBy returns the ordering for field in its default direction
func OrderBy(field ScoreField) *Ordering {
	return &Ordering{Field: field, Direction: field.DefaultDirection()}
}

// Filter is a conjunction of predicates pinned to exactly one date
// ⭐ SSOT: 스크리닝 필터는 이 구조체로만 전달
type Filter struct {
	Date         time.Time
	Profile      Optional[string]
	Sector       Optional[string]
	MinScore     Optional[decimal.Decimal]
	MaxScore     Optional[decimal.Decimal]
	MinMarketCap Optional[decimal.Decimal]
	MaxMarketCap Optional[decimal.Decimal]
	MaxDiscount  Optional[decimal.Decimal] // discount < MaxDiscount
}

// Query is a filtered, optionally ranked, windowed scan
type Query struct {
	Filter Filter
	Order  *Ordering // nil: ticker ascending, no null exclusion
	Offset int
	Limit  int // <= 0: unlimited
}
