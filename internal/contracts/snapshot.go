package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// FactorSnapshot is one ticker's factor and score record for one trading date
// ⭐ SSOT: 스냅샷 엔티티 정의는 여기서만
//
// Identity is (Ticker, Date). Every other field may be null; numeric fields use
// decimal.NullDecimal so prices and ratios never pass through float64.
type FactorSnapshot struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`

	Name     *string `json:"name"`
	Sector   *string `json:"sector"`
	Industry *string `json:"industry"`

	// Price & volume
	Price        decimal.NullDecimal `json:"price"`
	MarketCap    decimal.NullDecimal `json:"market_cap"`
	DollarVolume decimal.NullDecimal `json:"dollar_volume"`

	// Valuation
	PERatio     decimal.NullDecimal `json:"pe_ratio"`
	PEGRatio    decimal.NullDecimal `json:"peg_ratio"`
	PBRatio     decimal.NullDecimal `json:"pb_ratio"`
	PSRatio     decimal.NullDecimal `json:"ps_ratio"`
	EVEBITDA    decimal.NullDecimal `json:"ev_ebitda"`
	FCFYield    decimal.NullDecimal `json:"fcf_yield"`
	DivYield    decimal.NullDecimal `json:"div_yield"`
	PayoutRatio decimal.NullDecimal `json:"payout_ratio"`

	// Profitability
	ROE              decimal.NullDecimal `json:"roe"`
	ROA              decimal.NullDecimal `json:"roa"`
	OpMarginTTM      decimal.NullDecimal `json:"op_margin_ttm"`
	OperatingMargins decimal.NullDecimal `json:"operating_margins"`
	GrossMargins     decimal.NullDecimal `json:"gross_margins"`
	NetMargins       decimal.NullDecimal `json:"net_margins"`

	// Growth
	RevYoY          decimal.NullDecimal `json:"rev_yoy"`
	EPSGrowth3Y     decimal.NullDecimal `json:"eps_growth_3y"`
	RevenueGrowth3Y decimal.NullDecimal `json:"revenue_growth_3y"`
	EBITDAGrowth3Y  decimal.NullDecimal `json:"ebitda_growth_3y"`

	// Technical
	SMA20         decimal.NullDecimal `json:"sma_20"`
	SMA50         decimal.NullDecimal `json:"sma_50"`
	SMA200        decimal.NullDecimal `json:"sma_200"`
	RSI14         decimal.NullDecimal `json:"rsi_14"`
	MACD          decimal.NullDecimal `json:"macd"`
	MACDSignal    decimal.NullDecimal `json:"macd_signal"`
	MACDHistogram decimal.NullDecimal `json:"macd_histogram"`
	BBPosition    decimal.NullDecimal `json:"bb_position"`
	ATR14         decimal.NullDecimal `json:"atr_14"`

	// Momentum
	Ret5          decimal.NullDecimal `json:"ret_5"`
	Ret20         decimal.NullDecimal `json:"ret_20"`
	Ret63         decimal.NullDecimal `json:"ret_63"`
	Momentum12M   decimal.NullDecimal `json:"momentum_12m"`
	Volatility21D decimal.NullDecimal `json:"volatility_21d"`
	High52WRatio  decimal.NullDecimal `json:"high_52w_ratio"`
	Low52WRatio   decimal.NullDecimal `json:"low_52w_ratio"`
	RVol          decimal.NullDecimal `json:"rvol"`

	// Risk
	Beta                 decimal.NullDecimal `json:"beta"`
	ShortPercent         decimal.NullDecimal `json:"short_percent"`
	InsiderOwnership     decimal.NullDecimal `json:"insider_ownership"`
	InstitutionOwnership decimal.NullDecimal `json:"institution_ownership"`

	// Fair value: Discount = (Price - FairValue) / FairValue, negative = undervalued
	FairValue decimal.NullDecimal `json:"fair_value"`
	Discount  decimal.NullDecimal `json:"discount"`

	// Composite scores (0 ~ 100)
	GrowthScore   decimal.NullDecimal `json:"growth_score"`
	QualityScore  decimal.NullDecimal `json:"quality_score"`
	ValueScore    decimal.NullDecimal `json:"value_score"`
	MomentumScore decimal.NullDecimal `json:"momentum_score"`
	TotalScore    decimal.NullDecimal `json:"total_score"`

	// Screening profiles passed on Date. Unordered, may contain duplicates.
	Profiles []string `json:"passed_profiles"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Score returns the value of the given ranking field
func (s *FactorSnapshot) Score(field ScoreField) decimal.NullDecimal {
	switch field {
	case ScoreTotal:
		return s.TotalScore
	case ScoreGrowth:
		return s.GrowthScore
	case ScoreQuality:
		return s.QualityScore
	case ScoreValue:
		return s.ValueScore
	case ScoreMomentum:
		return s.MomentumScore
	case ScoreDiscount:
		return s.Discount
	default:
		return decimal.NullDecimal{}
	}
}

// SectorName returns the sector or "" when the snapshot has none
func (s *FactorSnapshot) SectorName() string {
	if s.Sector == nil {
		return ""
	}
	return *s.Sector
}

// Clone returns a copy that shares no mutable state with s
func (s *FactorSnapshot) Clone() *FactorSnapshot {
	c := *s
	if s.Profiles != nil {
		c.Profiles = append([]string(nil), s.Profiles...)
	}
	c.Name = cloneString(s.Name)
	c.Sector = cloneString(s.Sector)
	c.Industry = cloneString(s.Industry)
	return &c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SectorCount is the number of snapshots of one sector on a date.
// Sector is nil for snapshots without a sector.
type SectorCount struct {
	Sector *string `json:"sector"`
	Count  int64   `json:"count"`
}
