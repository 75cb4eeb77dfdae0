package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

// SnapshotModel is the gorm row of undervalued_stocks
type SnapshotModel struct {
	ID       uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Ticker   string    `gorm:"column:ticker;type:varchar(20);not null;uniqueIndex:uk_ticker_date,priority:1;index:idx_ticker"`
	DataDate time.Time `gorm:"column:data_date;type:date;not null;uniqueIndex:uk_ticker_date,priority:2;index:idx_data_date"`
	Name     *string   `gorm:"column:name;type:varchar(255)"`
	Sector   *string   `gorm:"column:sector;type:varchar(100);index:idx_sector"`
	Industry *string   `gorm:"column:industry;type:varchar(100)"`

	Price                decimal.NullDecimal `gorm:"column:price;type:decimal(12,2)"`
	MarketCap            decimal.NullDecimal `gorm:"column:market_cap;type:decimal(18,2)"`
	DollarVolume         decimal.NullDecimal `gorm:"column:dollar_volume;type:decimal(18,2)"`
	PERatio              decimal.NullDecimal `gorm:"column:pe_ratio;type:decimal(10,2)"`
	PEGRatio             decimal.NullDecimal `gorm:"column:peg_ratio;type:decimal(10,2)"`
	PBRatio              decimal.NullDecimal `gorm:"column:pb_ratio;type:decimal(10,2)"`
	PSRatio              decimal.NullDecimal `gorm:"column:ps_ratio;type:decimal(10,2)"`
	EVEBITDA             decimal.NullDecimal `gorm:"column:ev_ebitda;type:decimal(10,2)"`
	FCFYield             decimal.NullDecimal `gorm:"column:fcf_yield;type:decimal(8,4)"`
	DivYield             decimal.NullDecimal `gorm:"column:div_yield;type:decimal(8,4)"`
	PayoutRatio          decimal.NullDecimal `gorm:"column:payout_ratio;type:decimal(8,4)"`
	ROE                  decimal.NullDecimal `gorm:"column:roe;type:decimal(8,4)"`
	ROA                  decimal.NullDecimal `gorm:"column:roa;type:decimal(8,4)"`
	OpMarginTTM          decimal.NullDecimal `gorm:"column:op_margin_ttm;type:decimal(8,4)"`
	OperatingMargins     decimal.NullDecimal `gorm:"column:operating_margins;type:decimal(8,4)"`
	GrossMargins         decimal.NullDecimal `gorm:"column:gross_margins;type:decimal(8,4)"`
	NetMargins           decimal.NullDecimal `gorm:"column:net_margins;type:decimal(8,4)"`
	RevYoY               decimal.NullDecimal `gorm:"column:rev_yoy;type:decimal(8,4)"`
	EPSGrowth3Y          decimal.NullDecimal `gorm:"column:eps_growth_3y;type:decimal(8,4)"`
	RevenueGrowth3Y      decimal.NullDecimal `gorm:"column:revenue_growth_3y;type:decimal(8,4)"`
	EBITDAGrowth3Y       decimal.NullDecimal `gorm:"column:ebitda_growth_3y;type:decimal(8,4)"`
	SMA20                decimal.NullDecimal `gorm:"column:sma_20;type:decimal(12,2)"`
	SMA50                decimal.NullDecimal `gorm:"column:sma_50;type:decimal(12,2)"`
	SMA200               decimal.NullDecimal `gorm:"column:sma_200;type:decimal(12,2)"`
	RSI14                decimal.NullDecimal `gorm:"column:rsi_14;type:decimal(6,2)"`
	MACD                 decimal.NullDecimal `gorm:"column:macd;type:decimal(12,4)"`
	MACDSignal           decimal.NullDecimal `gorm:"column:macd_signal;type:decimal(12,4)"`
	MACDHistogram        decimal.NullDecimal `gorm:"column:macd_histogram;type:decimal(12,4)"`
	BBPosition           decimal.NullDecimal `gorm:"column:bb_position;type:decimal(6,4)"`
	ATR14                decimal.NullDecimal `gorm:"column:atr_14;type:decimal(12,4)"`
	Ret5                 decimal.NullDecimal `gorm:"column:ret_5;type:decimal(8,4)"`
	Ret20                decimal.NullDecimal `gorm:"column:ret_20;type:decimal(8,4)"`
	Ret63                decimal.NullDecimal `gorm:"column:ret_63;type:decimal(8,4)"`
	Momentum12M          decimal.NullDecimal `gorm:"column:momentum_12m;type:decimal(8,4)"`
	Volatility21D        decimal.NullDecimal `gorm:"column:volatility_21d;type:decimal(8,4)"`
	High52WRatio         decimal.NullDecimal `gorm:"column:high_52w_ratio;type:decimal(6,4)"`
	Low52WRatio          decimal.NullDecimal `gorm:"column:low_52w_ratio;type:decimal(6,4)"`
	RVol                 decimal.NullDecimal `gorm:"column:rvol;type:decimal(6,2)"`
	Beta                 decimal.NullDecimal `gorm:"column:beta;type:decimal(6,3)"`
	ShortPercent         decimal.NullDecimal `gorm:"column:short_percent;type:decimal(6,4)"`
	InsiderOwnership     decimal.NullDecimal `gorm:"column:insider_ownership;type:decimal(6,4)"`
	InstitutionOwnership decimal.NullDecimal `gorm:"column:institution_ownership;type:decimal(6,4)"`
	FairValue            decimal.NullDecimal `gorm:"column:fair_value;type:decimal(12,2)"`
	Discount             decimal.NullDecimal `gorm:"column:discount;type:decimal(8,4)"`
	GrowthScore          decimal.NullDecimal `gorm:"column:growth_score;type:decimal(6,2)"`
	QualityScore         decimal.NullDecimal `gorm:"column:quality_score;type:decimal(6,2)"`
	ValueScore           decimal.NullDecimal `gorm:"column:value_score;type:decimal(6,2)"`
	MomentumScore        decimal.NullDecimal `gorm:"column:momentum_score;type:decimal(6,2)"`
	TotalScore           decimal.NullDecimal `gorm:"column:total_score;type:decimal(6,2)"`

	// JSON array of profile names, matched with JSON_CONTAINS
	PassedProfiles datatypes.JSON `gorm:"column:passed_profiles;type:json"`

	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SnapshotModel) TableName() string { return "undervalued_stocks" }

// ToDomain maps the row to a snapshot, decoding the profile column
func (m *SnapshotModel) ToDomain() (*contracts.FactorSnapshot, error) {
	profiles, err := contracts.DecodeProfiles(m.PassedProfiles)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", m.Ticker, err)
	}

	return &contracts.FactorSnapshot{
		Ticker:   m.Ticker,
		Date:     contracts.TruncateDate(m.DataDate),
		Name:     m.Name,
		Sector:   m.Sector,
		Industry: m.Industry,

		Price:                m.Price,
		MarketCap:            m.MarketCap,
		DollarVolume:         m.DollarVolume,
		PERatio:              m.PERatio,
		PEGRatio:             m.PEGRatio,
		PBRatio:              m.PBRatio,
		PSRatio:              m.PSRatio,
		EVEBITDA:             m.EVEBITDA,
		FCFYield:             m.FCFYield,
		DivYield:             m.DivYield,
		PayoutRatio:          m.PayoutRatio,
		ROE:                  m.ROE,
		ROA:                  m.ROA,
		OpMarginTTM:          m.OpMarginTTM,
		OperatingMargins:     m.OperatingMargins,
		GrossMargins:         m.GrossMargins,
		NetMargins:           m.NetMargins,
		RevYoY:               m.RevYoY,
		EPSGrowth3Y:          m.EPSGrowth3Y,
		RevenueGrowth3Y:      m.RevenueGrowth3Y,
		EBITDAGrowth3Y:       m.EBITDAGrowth3Y,
		SMA20:                m.SMA20,
		SMA50:                m.SMA50,
		SMA200:               m.SMA200,
		RSI14:                m.RSI14,
		MACD:                 m.MACD,
		MACDSignal:           m.MACDSignal,
		MACDHistogram:        m.MACDHistogram,
		BBPosition:           m.BBPosition,
		ATR14:                m.ATR14,
		Ret5:                 m.Ret5,
		Ret20:                m.Ret20,
		Ret63:                m.Ret63,
		Momentum12M:          m.Momentum12M,
		Volatility21D:        m.Volatility21D,
		High52WRatio:         m.High52WRatio,
		Low52WRatio:          m.Low52WRatio,
		RVol:                 m.RVol,
		Beta:                 m.Beta,
		ShortPercent:         m.ShortPercent,
		InsiderOwnership:     m.InsiderOwnership,
		InstitutionOwnership: m.InstitutionOwnership,
		FairValue:            m.FairValue,
		Discount:             m.Discount,
		GrowthScore:          m.GrowthScore,
		QualityScore:         m.QualityScore,
		ValueScore:           m.ValueScore,
		MomentumScore:        m.MomentumScore,
		TotalScore:           m.TotalScore,

		Profiles:  profiles,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// fromDomain maps a snapshot to a row, encoding the profile column
func fromDomain(s *contracts.FactorSnapshot) (*SnapshotModel, error) {
	profiles, err := contracts.EncodeProfiles(s.Profiles)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.Ticker, err)
	}

	return &SnapshotModel{
		Ticker:   contracts.NormalizeTicker(s.Ticker),
		DataDate: contracts.TruncateDate(s.Date),
		Name:     s.Name,
		Sector:   s.Sector,
		Industry: s.Industry,

		Price:                s.Price,
		MarketCap:            s.MarketCap,
		DollarVolume:         s.DollarVolume,
		PERatio:              s.PERatio,
		PEGRatio:             s.PEGRatio,
		PBRatio:              s.PBRatio,
		PSRatio:              s.PSRatio,
		EVEBITDA:             s.EVEBITDA,
		FCFYield:             s.FCFYield,
		DivYield:             s.DivYield,
		PayoutRatio:          s.PayoutRatio,
		ROE:                  s.ROE,
		ROA:                  s.ROA,
		OpMarginTTM:          s.OpMarginTTM,
		OperatingMargins:     s.OperatingMargins,
		GrossMargins:         s.GrossMargins,
		NetMargins:           s.NetMargins,
		RevYoY:               s.RevYoY,
		EPSGrowth3Y:          s.EPSGrowth3Y,
		RevenueGrowth3Y:      s.RevenueGrowth3Y,
		EBITDAGrowth3Y:       s.EBITDAGrowth3Y,
		SMA20:                s.SMA20,
		SMA50:                s.SMA50,
		SMA200:               s.SMA200,
		RSI14:                s.RSI14,
		MACD:                 s.MACD,
		MACDSignal:           s.MACDSignal,
		MACDHistogram:        s.MACDHistogram,
		BBPosition:           s.BBPosition,
		ATR14:                s.ATR14,
		Ret5:                 s.Ret5,
		Ret20:                s.Ret20,
		Ret63:                s.Ret63,
		Momentum12M:          s.Momentum12M,
		Volatility21D:        s.Volatility21D,
		High52WRatio:         s.High52WRatio,
		Low52WRatio:          s.Low52WRatio,
		RVol:                 s.RVol,
		Beta:                 s.Beta,
		ShortPercent:         s.ShortPercent,
		InsiderOwnership:     s.InsiderOwnership,
		InstitutionOwnership: s.InstitutionOwnership,
		FairValue:            s.FairValue,
		Discount:             s.Discount,
		GrowthScore:          s.GrowthScore,
		QualityScore:         s.QualityScore,
		ValueScore:           s.ValueScore,
		MomentumScore:        s.MomentumScore,
		TotalScore:           s.TotalScore,

		PassedProfiles: datatypes.JSON(profiles),
	}, nil
}

// updatableColumns are overwritten when an upsert hits an existing (ticker, data_date)
var updatableColumns = []string{
	"name", "sector", "industry",
	"price", "market_cap", "dollar_volume", "pe_ratio", "peg_ratio", "pb_ratio",
	"ps_ratio", "ev_ebitda", "fcf_yield", "div_yield", "payout_ratio", "roe",
	"roa", "op_margin_ttm", "operating_margins", "gross_margins", "net_margins", "rev_yoy",
	"eps_growth_3y", "revenue_growth_3y", "ebitda_growth_3y", "sma_20", "sma_50", "sma_200",
	"rsi_14", "macd", "macd_signal", "macd_histogram", "bb_position", "atr_14",
	"ret_5", "ret_20", "ret_63", "momentum_12m", "volatility_21d", "high_52w_ratio",
	"low_52w_ratio", "rvol", "beta", "short_percent", "insider_ownership", "institution_ownership",
	"fair_value", "discount", "growth_score", "quality_score", "value_score", "momentum_score",
	"total_score",
	"passed_profiles", "updated_at",
}
