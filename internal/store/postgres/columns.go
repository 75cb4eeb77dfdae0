package postgres

import (
	"reflect"
	"strings"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

const table = "undervalued_stocks"

// column pairs a table column with the snapshot field it scans into
type column struct {
	name   string
	target func(s *contracts.FactorSnapshot) any
}

// ⭐ SSOT: 컬럼 목록과 스캔 대상은 여기서만 (순서 일치 필수)
var snapshotColumns = []column{
	{"ticker", func(s *contracts.FactorSnapshot) any { return &s.Ticker }},
	{"data_date", func(s *contracts.FactorSnapshot) any { return &s.Date }},
	{"name", func(s *contracts.FactorSnapshot) any { return &s.Name }},
	{"sector", func(s *contracts.FactorSnapshot) any { return &s.Sector }},
	{"industry", func(s *contracts.FactorSnapshot) any { return &s.Industry }},

	{"price", func(s *contracts.FactorSnapshot) any { return &s.Price }},
	{"market_cap", func(s *contracts.FactorSnapshot) any { return &s.MarketCap }},
	{"dollar_volume", func(s *contracts.FactorSnapshot) any { return &s.DollarVolume }},

	{"pe_ratio", func(s *contracts.FactorSnapshot) any { return &s.PERatio }},
	{"peg_ratio", func(s *contracts.FactorSnapshot) any { return &s.PEGRatio }},
	{"pb_ratio", func(s *contracts.FactorSnapshot) any { return &s.PBRatio }},
	{"ps_ratio", func(s *contracts.FactorSnapshot) any { return &s.PSRatio }},
	{"ev_ebitda", func(s *contracts.FactorSnapshot) any { return &s.EVEBITDA }},
	{"fcf_yield", func(s *contracts.FactorSnapshot) any { return &s.FCFYield }},
	{"div_yield", func(s *contracts.FactorSnapshot) any { return &s.DivYield }},
	{"payout_ratio", func(s *contracts.FactorSnapshot) any { return &s.PayoutRatio }},

	{"roe", func(s *contracts.FactorSnapshot) any { return &s.ROE }},
	{"roa", func(s *contracts.FactorSnapshot) any { return &s.ROA }},
	{"op_margin_ttm", func(s *contracts.FactorSnapshot) any { return &s.OpMarginTTM }},
	{"operating_margins", func(s *contracts.FactorSnapshot) any { return &s.OperatingMargins }},
	{"gross_margins", func(s *contracts.FactorSnapshot) any { return &s.GrossMargins }},
	{"net_margins", func(s *contracts.FactorSnapshot) any { return &s.NetMargins }},

	{"rev_yoy", func(s *contracts.FactorSnapshot) any { return &s.RevYoY }},
	{"eps_growth_3y", func(s *contracts.FactorSnapshot) any { return &s.EPSGrowth3Y }},
	{"revenue_growth_3y", func(s *contracts.FactorSnapshot) any { return &s.RevenueGrowth3Y }},
	{"ebitda_growth_3y", func(s *contracts.FactorSnapshot) any { return &s.EBITDAGrowth3Y }},

	{"sma_20", func(s *contracts.FactorSnapshot) any { return &s.SMA20 }},
	{"sma_50", func(s *contracts.FactorSnapshot) any { return &s.SMA50 }},
	{"sma_200", func(s *contracts.FactorSnapshot) any { return &s.SMA200 }},
	{"rsi_14", func(s *contracts.FactorSnapshot) any { return &s.RSI14 }},
	{"macd", func(s *contracts.FactorSnapshot) any { return &s.MACD }},
	{"macd_signal", func(s *contracts.FactorSnapshot) any { return &s.MACDSignal }},
	{"macd_histogram", func(s *contracts.FactorSnapshot) any { return &s.MACDHistogram }},
	{"bb_position", func(s *contracts.FactorSnapshot) any { return &s.BBPosition }},
	{"atr_14", func(s *contracts.FactorSnapshot) any { return &s.ATR14 }},

	{"ret_5", func(s *contracts.FactorSnapshot) any { return &s.Ret5 }},
	{"ret_20", func(s *contracts.FactorSnapshot) any { return &s.Ret20 }},
	{"ret_63", func(s *contracts.FactorSnapshot) any { return &s.Ret63 }},
	{"momentum_12m", func(s *contracts.FactorSnapshot) any { return &s.Momentum12M }},
	{"volatility_21d", func(s *contracts.FactorSnapshot) any { return &s.Volatility21D }},
	{"high_52w_ratio", func(s *contracts.FactorSnapshot) any { return &s.High52WRatio }},
	{"low_52w_ratio", func(s *contracts.FactorSnapshot) any { return &s.Low52WRatio }},
	{"rvol", func(s *contracts.FactorSnapshot) any { return &s.RVol }},

	{"beta", func(s *contracts.FactorSnapshot) any { return &s.Beta }},
	{"short_percent", func(s *contracts.FactorSnapshot) any { return &s.ShortPercent }},
	{"insider_ownership", func(s *contracts.FactorSnapshot) any { return &s.InsiderOwnership }},
	{"institution_ownership", func(s *contracts.FactorSnapshot) any { return &s.InstitutionOwnership }},

	{"fair_value", func(s *contracts.FactorSnapshot) any { return &s.FairValue }},
	{"discount", func(s *contracts.FactorSnapshot) any { return &s.Discount }},

	{"growth_score", func(s *contracts.FactorSnapshot) any { return &s.GrowthScore }},
	{"quality_score", func(s *contracts.FactorSnapshot) any { return &s.QualityScore }},
	{"value_score", func(s *contracts.FactorSnapshot) any { return &s.ValueScore }},
	{"momentum_score", func(s *contracts.FactorSnapshot) any { return &s.MomentumScore }},
	{"total_score", func(s *contracts.FactorSnapshot) any { return &s.TotalScore }},

	{"passed_profiles", func(s *contracts.FactorSnapshot) any { return &s.Profiles }},

	// store-owned audit columns, never written by Upsert
	{"created_at", func(s *contracts.FactorSnapshot) any { return &s.CreatedAt }},
	{"updated_at", func(s *contracts.FactorSnapshot) any { return &s.UpdatedAt }},
}

// writableColumns excludes the audit columns
var writableColumns = snapshotColumns[:len(snapshotColumns)-2]

func columnNames(cols []column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

var selectList = strings.Join(columnNames(snapshotColumns), ", ")

// scanTargets returns pointers into s in column order
func scanTargets(s *contracts.FactorSnapshot) []any {
	targets := make([]any, len(snapshotColumns))
	for i, c := range snapshotColumns {
		targets[i] = c.target(s)
	}
	return targets
}

// insertArgs returns the values of the writable columns of s
func insertArgs(s *contracts.FactorSnapshot) []any {
	args := make([]any, len(writableColumns))
	for i, c := range writableColumns {
		args[i] = reflect.ValueOf(c.target(s)).Elem().Interface()
	}
	return args
}
