package screening

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
)

// Service answers every supported screening query shape.
// It is stateless; each call resolves its date exactly once and pins every
// sub-query of the call to that date.
type Service struct {
	store contracts.SnapshotStore
	dates *DateResolver
	stats *StatsAggregator
}

// NewService creates a screening service over store
func NewService(store contracts.SnapshotStore) *Service {
	return &Service{
		store: store,
		dates: NewDateResolver(store),
		stats: NewStatsAggregator(store),
	}
}

// Listing is a limited result together with the date it was computed for
type Listing struct {
	Date  time.Time
	Items []*contracts.FactorSnapshot
}

// SectorList is the distinct sectors of one date
type SectorList struct {
	Date    time.Time
	Sectors []string
}

// SectorTally is the per-sector counts of one date
type SectorTally struct {
	Date   time.Time
	Counts []contracts.SectorCount
}

// ProfileTally is the number of snapshots tagged with Profile on Date
type ProfileTally struct {
	Date    time.Time
	Profile string
	Count   int64
}

// SearchParams is the combined filter, ranking and paging request
type SearchParams struct {
	Date   contracts.Optional[time.Time]
	Filter FilterParams
	RankBy contracts.Optional[contracts.ScoreField] // default total score
	Page   PageRequest
}

// LatestDate returns the most recent snapshot date
func (s *Service) LatestDate(ctx context.Context) (time.Time, error) {
	return s.dates.Latest(ctx)
}

// Get looks up one ticker on date, or on the latest date when date is absent
func (s *Service) Get(ctx context.Context, ticker string, date contracts.Optional[time.Time]) (*contracts.FactorSnapshot, error) {
	ticker = contracts.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", contracts.ErrNotFound)
	}

	d, err := s.dates.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Get(ctx, ticker, d)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Top returns the highest total scores on the latest date
func (s *Service) Top(ctx context.Context, limit int) (*Listing, error) {
	return s.TopByScore(ctx, contracts.ScoreTotal, limit)
}

// TopByScore ranks the latest date by field in its natural direction
func (s *Service) TopByScore(ctx context.Context, field contracts.ScoreField, limit int) (*Listing, error) {
	return s.list(ctx, contracts.None[time.Time](), FilterParams{}, contracts.OrderBy(field), limit)
}

// ByProfile returns the latest snapshots tagged with profile, best total score first
func (s *Service) ByProfile(ctx context.Context, profile string, limit int) (*Listing, error) {
	params := FilterParams{Profile: contracts.Some(profile)}
	return s.list(ctx, contracts.None[time.Time](), params, contracts.OrderBy(contracts.ScoreTotal), limit)
}

// UndervaluedQuality is ByProfile for the undervalued_quality profile
func (s *Service) UndervaluedQuality(ctx context.Context, limit int) (*Listing, error) {
	return s.ByProfile(ctx, contracts.ProfileUndervaluedQuality, limit)
}

// ByProfilePage pages through a profile on date (latest when absent)
func (s *Service) ByProfilePage(ctx context.Context, profile string, date contracts.Optional[time.Time], req PageRequest) (*Page, error) {
	return s.page(ctx, date, FilterParams{Profile: contracts.Some(profile)}, contracts.OrderBy(contracts.ScoreTotal), req)
}

// TopBySector returns the best total scores of one sector on the latest date
func (s *Service) TopBySector(ctx context.Context, sector string, limit int) (*Listing, error) {
	params := FilterParams{Sector: contracts.Some(sector)}
	return s.list(ctx, contracts.None[time.Time](), params, contracts.OrderBy(contracts.ScoreTotal), limit)
}

// ByScoreRange returns latest snapshots with total score in [min, max]
func (s *Service) ByScoreRange(ctx context.Context, min, max contracts.Optional[decimal.Decimal], limit int) (*Listing, error) {
	params := FilterParams{MinScore: min, MaxScore: max}
	return s.list(ctx, contracts.None[time.Time](), params, contracts.OrderBy(contracts.ScoreTotal), limit)
}

// ByMarketCapRange returns latest snapshots with market cap in [min, max],
// ranked by total score
func (s *Service) ByMarketCapRange(ctx context.Context, min, max contracts.Optional[decimal.Decimal], limit int) (*Listing, error) {
	params := FilterParams{MinMarketCap: min, MaxMarketCap: max}
	return s.list(ctx, contracts.None[time.Time](), params, contracts.OrderBy(contracts.ScoreTotal), limit)
}

// MostUndervalued returns latest snapshots with discount below maxDiscount
// (0 when absent), most undervalued first
func (s *Service) MostUndervalued(ctx context.Context, limit int, maxDiscount contracts.Optional[decimal.Decimal]) (*Listing, error) {
	params := FilterParams{MaxDiscount: contracts.Some(maxDiscount.OrElse(decimal.Zero))}
	return s.list(ctx, contracts.None[time.Time](), params, contracts.OrderBy(contracts.ScoreDiscount), limit)
}

// Search applies every filter in p at one date and returns the requested page
func (s *Service) Search(ctx context.Context, p SearchParams) (*Page, error) {
	field := p.RankBy.OrElse(contracts.ScoreTotal)
	return s.page(ctx, p.Date, p.Filter, contracts.OrderBy(field), p.Page)
}

// Sectors returns the distinct non-null sectors on date (latest when absent)
func (s *Service) Sectors(ctx context.Context, date contracts.Optional[time.Time]) (*SectorList, error) {
	d, err := s.dates.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}
	sectors, err := s.store.Sectors(ctx, d)
	if err != nil {
		return nil, err
	}
	return &SectorList{Date: d, Sectors: sectors}, nil
}

// SectorCounts returns per-sector counts on date (latest when absent)
func (s *Service) SectorCounts(ctx context.Context, date contracts.Optional[time.Time]) (*SectorTally, error) {
	d, err := s.dates.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}
	counts, err := s.stats.SectorCounts(ctx, d)
	if err != nil {
		return nil, err
	}
	return &SectorTally{Date: d, Counts: counts}, nil
}

// ProfileCount counts the latest snapshots tagged with profile
func (s *Service) ProfileCount(ctx context.Context, profile string) (*ProfileTally, error) {
	d, err := s.dates.Latest(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.stats.ProfileCount(ctx, d, profile)
	if err != nil {
		return nil, err
	}
	return &ProfileTally{Date: d, Profile: profile, Count: n}, nil
}

// Stats summarises the latest date: totals, average score, known profile
// counts and sector counts, all against the same pinned date
func (s *Service) Stats(ctx context.Context) (*Summary, error) {
	d, err := s.dates.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return s.stats.Summarize(ctx, d, contracts.KnownProfiles)
}

func (s *Service) list(ctx context.Context, date contracts.Optional[time.Time], params FilterParams, order *contracts.Ordering, limit int) (*Listing, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	d, err := s.dates.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}

	f, err := BuildFilter(d, params)
	if err != nil {
		return nil, err
	}

	items, err := s.store.Scan(ctx, contracts.Query{Filter: f, Order: order, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &Listing{Date: d, Items: items}, nil
}

func (s *Service) page(ctx context.Context, date contracts.Optional[time.Time], params FilterParams, order *contracts.Ordering, req PageRequest) (*Page, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}

	d, err := s.dates.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}

	f, err := BuildFilter(d, params)
	if err != nil {
		return nil, err
	}

	q := contracts.Query{Filter: f, Order: order, Offset: req.Offset(), Limit: req.Size}

	total, err := s.store.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	items, err := s.store.Scan(ctx, q)
	if err != nil {
		return nil, err
	}

	return &Page{Date: d, Items: items, Total: total, Page: req.Page, Size: req.Size}, nil
}

func validateParams(params FilterParams) error {
	if err := checkRange("score", params.MinScore, params.MaxScore); err != nil {
		return err
	}
	return checkRange("market cap", params.MinMarketCap, params.MaxMarketCap)
}
