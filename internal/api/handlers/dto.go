package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/internal/screening"
)

// SnapshotResponse is the wire form of one factor snapshot.
// Numbers are decimal strings; missing values are null.
type SnapshotResponse struct {
	Ticker   string  `json:"ticker"`
	Name     *string `json:"name"`
	Sector   *string `json:"sector"`
	Industry *string `json:"industry"`

	// 가격 및 거래량
	Price        decimal.NullDecimal `json:"price"`
	MarketCap    decimal.NullDecimal `json:"marketCap"`
	DollarVolume decimal.NullDecimal `json:"dollarVolume"`

	// 밸류에이션
	PE          decimal.NullDecimal `json:"pe"`
	PEG         decimal.NullDecimal `json:"peg"`
	PB          decimal.NullDecimal `json:"pb"`
	PS          decimal.NullDecimal `json:"ps"`
	EVEBITDA    decimal.NullDecimal `json:"evEbitda"`
	FCFYield    decimal.NullDecimal `json:"fcfYield"`
	DivYield    decimal.NullDecimal `json:"divYield"`
	PayoutRatio decimal.NullDecimal `json:"payoutRatio"`

	// 수익성
	ROE              decimal.NullDecimal `json:"roe"`
	ROA              decimal.NullDecimal `json:"roa"`
	OpMargin         decimal.NullDecimal `json:"opMargin"`
	OperatingMargins decimal.NullDecimal `json:"operatingMargins"`
	GrossMargins     decimal.NullDecimal `json:"grossMargins"`
	NetMargins       decimal.NullDecimal `json:"netMargins"`

	// 성장성
	RevGrowth       decimal.NullDecimal `json:"revGrowth"`
	EPSGrowth3Y     decimal.NullDecimal `json:"epsGrowth3Y"`
	RevenueGrowth3Y decimal.NullDecimal `json:"revenueGrowth3Y"`
	EBITDAGrowth3Y  decimal.NullDecimal `json:"ebitdaGrowth3Y"`

	// 기술적 지표
	SMA20         decimal.NullDecimal `json:"sma20"`
	SMA50         decimal.NullDecimal `json:"sma50"`
	SMA200        decimal.NullDecimal `json:"sma200"`
	RSI           decimal.NullDecimal `json:"rsi"`
	MACD          decimal.NullDecimal `json:"macd"`
	MACDSignal    decimal.NullDecimal `json:"macdSignal"`
	MACDHistogram decimal.NullDecimal `json:"macdHistogram"`
	BBPosition    decimal.NullDecimal `json:"bbPosition"`
	ATR           decimal.NullDecimal `json:"atr"`

	// 모멘텀
	Ret5D        decimal.NullDecimal `json:"ret5d"`
	Ret20D       decimal.NullDecimal `json:"ret20d"`
	Ret63D       decimal.NullDecimal `json:"ret63d"`
	Momentum12M  decimal.NullDecimal `json:"momentum12m"`
	Volatility   decimal.NullDecimal `json:"volatility"`
	High52WRatio decimal.NullDecimal `json:"high52wRatio"`
	Low52WRatio  decimal.NullDecimal `json:"low52wRatio"`
	RVol         decimal.NullDecimal `json:"rvol"`

	// 리스크
	Beta                 decimal.NullDecimal `json:"beta"`
	ShortPercent         decimal.NullDecimal `json:"shortPercent"`
	InsiderOwnership     decimal.NullDecimal `json:"insiderOwnership"`
	InstitutionOwnership decimal.NullDecimal `json:"institutionOwnership"`

	FairValue decimal.NullDecimal `json:"fairValue"`
	Discount  decimal.NullDecimal `json:"discount"`

	// 종합 점수
	GrowthScore   decimal.NullDecimal `json:"growthScore"`
	QualityScore  decimal.NullDecimal `json:"qualityScore"`
	ValueScore    decimal.NullDecimal `json:"valueScore"`
	MomentumScore decimal.NullDecimal `json:"momentumScore"`
	TotalScore    decimal.NullDecimal `json:"totalScore"`

	PassedProfiles []string `json:"passedProfiles"`
	DataDate       string   `json:"dataDate"`
}

// ToSnapshotResponse maps a snapshot field by field
// ⭐ SSOT: 스냅샷 -> API 응답 변환은 여기서만
func ToSnapshotResponse(s *contracts.FactorSnapshot) SnapshotResponse {
	profiles := s.Profiles
	if profiles == nil {
		profiles = []string{}
	}

	return SnapshotResponse{
		Ticker:   s.Ticker,
		Name:     s.Name,
		Sector:   s.Sector,
		Industry: s.Industry,

		Price:        s.Price,
		MarketCap:    s.MarketCap,
		DollarVolume: s.DollarVolume,

		PE:          s.PERatio,
		PEG:         s.PEGRatio,
		PB:          s.PBRatio,
		PS:          s.PSRatio,
		EVEBITDA:    s.EVEBITDA,
		FCFYield:    s.FCFYield,
		DivYield:    s.DivYield,
		PayoutRatio: s.PayoutRatio,

		ROE:              s.ROE,
		ROA:              s.ROA,
		OpMargin:         s.OpMarginTTM,
		OperatingMargins: s.OperatingMargins,
		GrossMargins:     s.GrossMargins,
		NetMargins:       s.NetMargins,

		RevGrowth:       s.RevYoY,
		EPSGrowth3Y:     s.EPSGrowth3Y,
		RevenueGrowth3Y: s.RevenueGrowth3Y,
		EBITDAGrowth3Y:  s.EBITDAGrowth3Y,

		SMA20:         s.SMA20,
		SMA50:         s.SMA50,
		SMA200:        s.SMA200,
		RSI:           s.RSI14,
		MACD:          s.MACD,
		MACDSignal:    s.MACDSignal,
		MACDHistogram: s.MACDHistogram,
		BBPosition:    s.BBPosition,
		ATR:           s.ATR14,

		Ret5D:        s.Ret5,
		Ret20D:       s.Ret20,
		Ret63D:       s.Ret63,
		Momentum12M:  s.Momentum12M,
		Volatility:   s.Volatility21D,
		High52WRatio: s.High52WRatio,
		Low52WRatio:  s.Low52WRatio,
		RVol:         s.RVol,

		Beta:                 s.Beta,
		ShortPercent:         s.ShortPercent,
		InsiderOwnership:     s.InsiderOwnership,
		InstitutionOwnership: s.InstitutionOwnership,

		FairValue: s.FairValue,
		Discount:  s.Discount,

		GrowthScore:   s.GrowthScore,
		QualityScore:  s.QualityScore,
		ValueScore:    s.ValueScore,
		MomentumScore: s.MomentumScore,
		TotalScore:    s.TotalScore,

		PassedProfiles: profiles,
		DataDate:       contracts.FormatDate(s.Date),
	}
}

// ToSnapshotResponses maps a result list, never returning nil
func ToSnapshotResponses(snaps []*contracts.FactorSnapshot) []SnapshotResponse {
	out := make([]SnapshotResponse, len(snaps))
	for i, s := range snaps {
		out[i] = ToSnapshotResponse(s)
	}
	return out
}

// PageResponse is one page of snapshots
type PageResponse struct {
	Content          []SnapshotResponse `json:"content"`
	TotalElements    int64              `json:"totalElements"`
	TotalPages       int                `json:"totalPages"`
	Number           int                `json:"number"`
	Size             int                `json:"size"`
	NumberOfElements int                `json:"numberOfElements"`
	First            bool               `json:"first"`
	Last             bool               `json:"last"`
	Empty            bool               `json:"empty"`
	DataDate         string             `json:"dataDate"`
}

// ToPageResponse maps a screening page
func ToPageResponse(p *screening.Page) PageResponse {
	totalPages := p.TotalPages()
	return PageResponse{
		Content:          ToSnapshotResponses(p.Items),
		TotalElements:    p.Total,
		TotalPages:       totalPages,
		Number:           p.Page,
		Size:             p.Size,
		NumberOfElements: len(p.Items),
		First:            p.Page == 0,
		Last:             p.Page >= totalPages-1,
		Empty:            len(p.Items) == 0,
		DataDate:         contracts.FormatDate(p.Date),
	}
}

// SectorCountResponse is one sector tally; the missing sector is reported as ""
type SectorCountResponse struct {
	Sector string `json:"sector"`
	Count  int64  `json:"count"`
}

func toSectorCounts(counts []contracts.SectorCount) []SectorCountResponse {
	out := make([]SectorCountResponse, len(counts))
	for i, c := range counts {
		out[i] = SectorCountResponse{Count: c.Count}
		if c.Sector != nil {
			out[i].Sector = *c.Sector
		}
	}
	return out
}

// StatsResponse is the statistics block of the latest date
type StatsResponse struct {
	LatestDate        string                `json:"latestDate"`
	TotalStocks       int64                 `json:"totalStocks"`
	AverageTotalScore decimal.Decimal       `json:"averageTotalScore"`
	ProfileCounts     map[string]int64      `json:"profileCounts"`
	SectorCounts      []SectorCountResponse `json:"sectorCounts"`
}

// ToStatsResponse maps a screening summary
func ToStatsResponse(s *screening.Summary) StatsResponse {
	return StatsResponse{
		LatestDate:        contracts.FormatDate(s.Date),
		TotalStocks:       s.TotalStocks,
		AverageTotalScore: s.AverageTotalScore,
		ProfileCounts:     s.ProfileCounts,
		SectorCounts:      toSectorCounts(s.SectorCounts),
	}
}
