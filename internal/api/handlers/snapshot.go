package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/internal/screening"
	"github.com/moner050/ddal-kkak/backend/pkg/config"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
)

// DataDateHeader carries the snapshot date a list response was computed for
const DataDateHeader = "X-Data-Date"

// SnapshotHandler handles the undervalued stock screening endpoints
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type SnapshotHandler struct {
	service *screening.Service
	api     config.APIConfig
	logger  *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(service *screening.Service, api config.APIConfig, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		service: service,
		api:     api,
		logger:  log.WithComponent("api"),
	}
}

func (h *SnapshotHandler) fail(w http.ResponseWriter, r *http.Request, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["path"] = r.URL.Path
	fields["query"] = r.URL.RawQuery
	respondServiceError(w, h.logger, err, fields)
}

func (h *SnapshotHandler) respondListing(w http.ResponseWriter, l *screening.Listing) {
	w.Header().Set(DataDateHeader, contracts.FormatDate(l.Date))
	respondJSON(w, http.StatusOK, ToSnapshotResponses(l.Items))
}

// GetLatestDate returns the most recent snapshot date
// GET /api/undervalued-stocks/latest-date
func (h *SnapshotHandler) GetLatestDate(w http.ResponseWriter, r *http.Request) {
	latest, err := h.service.LatestDate(r.Context())
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"latestDate": contracts.FormatDate(latest),
	})
}

// GetTop returns the highest total scores
// GET /api/undervalued-stocks/top?limit=100
func (h *SnapshotHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultTopLimit)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	listing, err := h.service.Top(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"limit": limit})
		return
	}
	h.respondListing(w, listing)
}

// GetTopByScore ranks by one score dimension
// GET /api/undervalued-stocks/top/{score}?limit=20
func (h *SnapshotHandler) GetTopByScore(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["score"]
	field, err := contracts.ParseScoreField(raw)
	if err != nil {
		h.fail(w, r, badParam("score", raw, err), nil)
		return
	}

	limit, err := queryLimit(r, defaultScoreTopLimit)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	listing, err := h.service.TopByScore(r.Context(), field, limit)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"score": field, "limit": limit})
		return
	}
	h.respondListing(w, listing)
}

// GetByTicker returns one ticker on the latest date, or on ?date=
// GET /api/undervalued-stocks/{ticker}
func (h *SnapshotHandler) GetByTicker(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	h.getSnapshot(w, r, date)
}

// GetHistory returns one ticker on an explicit date
// GET /api/undervalued-stocks/{ticker}/history?date=2025-11-07
func (h *SnapshotHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	if !date.IsSet() {
		h.fail(w, r, fmt.Errorf("%w: date is required", errBadParam), nil)
		return
	}
	h.getSnapshot(w, r, date)
}

func (h *SnapshotHandler) getSnapshot(w http.ResponseWriter, r *http.Request, date contracts.Optional[time.Time]) {
	ticker := mux.Vars(r)["ticker"]

	snap, err := h.service.Get(r.Context(), ticker, date)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"ticker": ticker})
		return
	}
	respondJSON(w, http.StatusOK, ToSnapshotResponse(snap))
}

// GetUndervaluedQuality lists the undervalued_quality profile
// GET /api/undervalued-stocks/profile/undervalued-quality?limit=50
func (h *SnapshotHandler) GetUndervaluedQuality(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultProfileLimit)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	listing, err := h.service.UndervaluedQuality(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"limit": limit})
		return
	}
	h.respondListing(w, listing)
}

// GetByProfile lists one profile
// GET /api/undervalued-stocks/profile/{name}?limit=50
func (h *SnapshotHandler) GetByProfile(w http.ResponseWriter, r *http.Request) {
	profile := mux.Vars(r)["name"]

	limit, err := queryLimit(r, defaultProfileLimit)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	listing, err := h.service.ByProfile(r.Context(), profile, limit)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"profile": profile, "limit": limit})
		return
	}
	h.respondListing(w, listing)
}

// GetByProfilePage pages through one profile
// GET /api/undervalued-stocks/profile/{name}/paging?page=0&size=20&date=2025-11-07
func (h *SnapshotHandler) GetByProfilePage(w http.ResponseWriter, r *http.Request) {
	profile := mux.Vars(r)["name"]

	req, err := queryPage(r, h.api.DefaultPageSize, h.api.MaxPageSize)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	page, err := h.service.ByProfilePage(r.Context(), profile, date, req)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"profile": profile, "page": req.Page, "size": req.Size})
		return
	}
	respondJSON(w, http.StatusOK, ToPageResponse(page))
}

// GetProfileCount counts one profile on the latest date
// GET /api/undervalued-stocks/profile/{name}/count
func (h *SnapshotHandler) GetProfileCount(w http.ResponseWriter, r *http.Request) {
	profile := mux.Vars(r)["name"]

	tally, err := h.service.ProfileCount(r.Context(), profile)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"profile": profile})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profile":    tally.Profile,
		"count":      tally.Count,
		"latestDate": contracts.FormatDate(tally.Date),
	})
}

// GetSectors lists the distinct sectors
// GET /api/undervalued-stocks/sectors?date=
func (h *SnapshotHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	list, err := h.service.Sectors(r.Context(), date)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	w.Header().Set(DataDateHeader, contracts.FormatDate(list.Date))
	respondJSON(w, http.StatusOK, list.Sectors)
}

// GetSectorCounts returns per-sector counts, largest first
// GET /api/undervalued-stocks/sectors/counts?date=
func (h *SnapshotHandler) GetSectorCounts(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	tally, err := h.service.SectorCounts(r.Context(), date)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	w.Header().Set(DataDateHeader, contracts.FormatDate(tally.Date))
	respondJSON(w, http.StatusOK, toSectorCounts(tally.Counts))
}

// GetTopBySector lists the best of one sector
// GET /api/undervalued-stocks/sector/{name}/top?limit=20
func (h *SnapshotHandler) GetTopBySector(w http.ResponseWriter, r *http.Request) {
	sector := mux.Vars(r)["name"]

	limit, err := queryLimit(r, defaultSectorLimit)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	listing, err := h.service.TopBySector(r.Context(), sector, limit)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"sector": sector, "limit": limit})
		return
	}
	h.respondListing(w, listing)
}

// GetByScoreRange filters by total score
// GET /api/undervalued-stocks/filter/score?minScore=70&maxScore=100&limit=50
func (h *SnapshotHandler) GetByScoreRange(w http.ResponseWriter, r *http.Request) {
	min, err := queryDecimal(r, "minScore")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	max, err := queryDecimal(r, "maxScore")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	limit, err := queryLimit(r, defaultFilterLimit)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	listing, err := h.service.ByScoreRange(r.Context(), min, max, limit)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"limit": limit})
		return
	}
	h.respondListing(w, listing)
}

// GetByMarketCapRange filters by market cap
// GET /api/undervalued-stocks/filter/market-cap?minMarketCap=1e9&maxMarketCap=1e11&limit=50
func (h *SnapshotHandler) GetByMarketCapRange(w http.ResponseWriter, r *http.Request) {
	min, err := queryDecimal(r, "minMarketCap")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	max, err := queryDecimal(r, "maxMarketCap")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	limit, err := queryLimit(r, defaultFilterLimit)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	listing, err := h.service.ByMarketCapRange(r.Context(), min, max, limit)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"limit": limit})
		return
	}
	h.respondListing(w, listing)
}

// GetMostUndervalued lists the deepest discounts
// GET /api/undervalued-stocks/filter/most-undervalued?limit=30&maxDiscount=0
func (h *SnapshotHandler) GetMostUndervalued(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultUndervalued)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	maxDiscount, err := queryDecimal(r, "maxDiscount")
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	listing, err := h.service.MostUndervalued(r.Context(), limit, maxDiscount)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{"limit": limit})
		return
	}
	h.respondListing(w, listing)
}

// Search combines every filter with ranking and paging
// GET /api/undervalued-stocks/search?profile=&sector=&minScore=&maxScore=&minMarketCap=&maxMarketCap=&maxDiscount=&date=&rankBy=&page=0&size=20
func (h *SnapshotHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := h.searchParams(r)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	page, err := h.service.Search(r.Context(), params)
	if err != nil {
		h.fail(w, r, err, map[string]interface{}{
			"profile": params.Filter.Profile.OrElse(""),
			"sector":  params.Filter.Sector.OrElse(""),
			"page":    params.Page.Page,
			"size":    params.Page.Size,
		})
		return
	}
	respondJSON(w, http.StatusOK, ToPageResponse(page))
}

func (h *SnapshotHandler) searchParams(r *http.Request) (screening.SearchParams, error) {
	var (
		p   screening.SearchParams
		err error
	)

	p.Filter.Profile = queryString(r, "profile")
	p.Filter.Sector = queryString(r, "sector")

	decimals := []struct {
		name   string
		target *contracts.Optional[decimal.Decimal]
	}{
		{"minScore", &p.Filter.MinScore},
		{"maxScore", &p.Filter.MaxScore},
		{"minMarketCap", &p.Filter.MinMarketCap},
		{"maxMarketCap", &p.Filter.MaxMarketCap},
		{"maxDiscount", &p.Filter.MaxDiscount},
	}
	for _, d := range decimals {
		if *d.target, err = queryDecimal(r, d.name); err != nil {
			return p, err
		}
	}

	if p.Date, err = queryDate(r, "date"); err != nil {
		return p, err
	}
	if p.RankBy, err = queryScoreField(r, "rankBy"); err != nil {
		return p, err
	}
	if p.Page, err = queryPage(r, h.api.DefaultPageSize, h.api.MaxPageSize); err != nil {
		return p, err
	}
	return p, nil
}

// GetStats summarises the latest date
// GET /api/undervalued-stocks/stats
func (h *SnapshotHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, ToStatsResponse(summary))
}

// Health reports liveness plus whether snapshot data is reachable.
// Always 200; dataStatus tells the two apart.
// GET /health
func (h *SnapshotHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status":    "UP",
		"service":   logger.ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	latest, err := h.service.LatestDate(r.Context())
	if err != nil {
		resp["dataStatus"] = "unavailable"
		resp["error"] = err.Error()
	} else {
		resp["dataStatus"] = "available"
		resp["latestDataDate"] = contracts.FormatDate(latest)
	}

	respondJSON(w, http.StatusOK, resp)
}
