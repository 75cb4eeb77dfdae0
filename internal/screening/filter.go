package screening

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

var errMissingDate = errors.New("screening: filter date is required")

// FilterParams carries the optional predicates of one screening query.
// An absent field places no constraint on the result.
type FilterParams struct {
	Profile      contracts.Optional[string]
	Sector       contracts.Optional[string]
	MinScore     contracts.Optional[decimal.Decimal]
	MaxScore     contracts.Optional[decimal.Decimal]
	MinMarketCap contracts.Optional[decimal.Decimal]
	MaxMarketCap contracts.Optional[decimal.Decimal]
	MaxDiscount  contracts.Optional[decimal.Decimal]
}

// BuildFilter pins params to date and validates the ranges
// ⭐ SSOT: 필터 조합/검증은 여기서만
func BuildFilter(date time.Time, params FilterParams) (contracts.Filter, error) {
	if date.IsZero() {
		return contracts.Filter{}, errMissingDate
	}
	if err := checkRange("score", params.MinScore, params.MaxScore); err != nil {
		return contracts.Filter{}, err
	}
	if err := checkRange("market cap", params.MinMarketCap, params.MaxMarketCap); err != nil {
		return contracts.Filter{}, err
	}

	return contracts.Filter{
		Date:         contracts.TruncateDate(date),
		Profile:      params.Profile,
		Sector:       params.Sector,
		MinScore:     params.MinScore,
		MaxScore:     params.MaxScore,
		MinMarketCap: params.MinMarketCap,
		MaxMarketCap: params.MaxMarketCap,
		MaxDiscount:  params.MaxDiscount,
	}, nil
}

func checkRange(name string, min, max contracts.Optional[decimal.Decimal]) error {
	lo, hasLo := min.Get()
	hi, hasHi := max.Get()
	if hasLo && hasHi && lo.GreaterThan(hi) {
		return fmt.Errorf("%w: %s min %s is greater than max %s", contracts.ErrInvalidRange, name, lo, hi)
	}
	return nil
}

// Matches evaluates f against a single snapshot in memory.
// A range bound on a null field never matches.
func Matches(f contracts.Filter, s *contracts.FactorSnapshot) bool {
	if !contracts.TruncateDate(s.Date).Equal(f.Date) {
		return false
	}
	if profile, ok := f.Profile.Get(); ok && !Contains(s.Profiles, profile) {
		return false
	}
	if sector, ok := f.Sector.Get(); ok && (s.Sector == nil || *s.Sector != sector) {
		return false
	}
	if !inRange(s.TotalScore, f.MinScore, f.MaxScore) {
		return false
	}
	if !inRange(s.MarketCap, f.MinMarketCap, f.MaxMarketCap) {
		return false
	}
	if ceiling, ok := f.MaxDiscount.Get(); ok {
		if !s.Discount.Valid || !s.Discount.Decimal.LessThan(ceiling) {
			return false
		}
	}
	return true
}

func inRange(v decimal.NullDecimal, min, max contracts.Optional[decimal.Decimal]) bool {
	lo, hasLo := min.Get()
	hi, hasHi := max.Get()
	if !hasLo && !hasHi {
		return true
	}
	if !v.Valid {
		return false
	}
	if hasLo && v.Decimal.LessThan(lo) {
		return false
	}
	if hasHi && v.Decimal.GreaterThan(hi) {
		return false
	}
	return true
}
