package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moner050/ddal-kkak/backend/internal/api/handlers"
	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/internal/screening"
	"github.com/moner050/ddal-kkak/backend/internal/store/memory"
	"github.com/moner050/ddal-kkak/backend/pkg/config"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
)

func day(s string) time.Time {
	t, err := contracts.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func num(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func strPtr(s string) *string {
	return &s
}

func testConfig() *config.Config {
	return &config.Config{
		Port: "0",
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     500,
			RequestTimeout:  5 * time.Second,
		},
	}
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()

	tech, health := strPtr("Technology"), strPtr("Healthcare")
	store := memory.New()
	require.NoError(t, store.Upsert(context.Background(),
		&contracts.FactorSnapshot{Ticker: "AAPL", Date: day("2025-11-07"), Name: strPtr("Apple Inc."), Sector: tech,
			TotalScore: num("85"), GrowthScore: num("70"), Discount: num("-0.10"), MarketCap: num("3000000000000"),
			Profiles: []string{"momentum", "growth_quality"}},
		&contracts.FactorSnapshot{Ticker: "MSFT", Date: day("2025-11-07"), Sector: tech,
			TotalScore: num("85"), GrowthScore: num("90"), Discount: num("-0.25"), MarketCap: num("2800000000000"),
			Profiles: []string{"momentum"}},
		&contracts.FactorSnapshot{Ticker: "JNJ", Date: day("2025-11-07"), Sector: health,
			TotalScore: num("70"), Discount: num("-0.30"), MarketCap: num("400000000000"),
			Profiles: []string{"undervalued_quality", "value_basic"}},
		&contracts.FactorSnapshot{Ticker: "ZZZ", Date: day("2025-11-07"),
			TotalScore: num("40"), Discount: num("0.20")},
		&contracts.FactorSnapshot{Ticker: "AAPL", Date: day("2025-11-06"), Sector: tech,
			TotalScore: num("99"), Profiles: []string{"swing"}},
	))
	return store
}

func newTestRouter(t *testing.T, store contracts.SnapshotStore) http.Handler {
	t.Helper()
	cfg := testConfig()
	h := handlers.NewSnapshotHandler(screening.NewService(store), cfg.API, logger.Nop())
	return NewRouter(cfg, h, nil, logger.Nop())
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func listTickers(items []map[string]interface{}) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i], _ = item["ticker"].(string)
	}
	return out
}

func TestRouter_Listings(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"top", "/api/undervalued-stocks/top", []string{"AAPL", "MSFT", "JNJ", "ZZZ"}},
		{"top limited", "/api/undervalued-stocks/top?limit=2", []string{"AAPL", "MSFT"}},
		{"top unlimited", "/api/undervalued-stocks/top?limit=0", []string{"AAPL", "MSFT", "JNJ", "ZZZ"}},
		{"top growth excludes nulls", "/api/undervalued-stocks/top/growth", []string{"MSFT", "AAPL"}},
		{"profile", "/api/undervalued-stocks/profile/momentum", []string{"AAPL", "MSFT"}},
		{"undervalued quality", "/api/undervalued-stocks/profile/undervalued-quality", []string{"JNJ"}},
		{"sector", "/api/undervalued-stocks/sector/Technology/top?limit=1", []string{"AAPL"}},
		{"score range", "/api/undervalued-stocks/filter/score?minScore=70&maxScore=85", []string{"AAPL", "MSFT", "JNJ"}},
		{"market cap", "/api/undervalued-stocks/filter/market-cap?minMarketCap=1000000000000", []string{"AAPL", "MSFT"}},
		{"most undervalued", "/api/undervalued-stocks/filter/most-undervalued", []string{"JNJ", "MSFT", "AAPL"}},
		{"most undervalued threshold", "/api/undervalued-stocks/filter/most-undervalued?maxDiscount=-0.2", []string{"JNJ", "MSFT"}},
		{"unknown profile", "/api/undervalued-stocks/profile/nope", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "2025-11-07", rec.Header().Get(handlers.DataDateHeader))
			assert.Equal(t, tt.want, listTickers(decodeList(t, rec)))
		})
	}
}

func TestRouter_SnapshotShape(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	rec := get(t, router, "/api/undervalued-stocks/aapl")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeObject(t, rec)
	assert.Equal(t, "AAPL", body["ticker"])
	assert.Equal(t, "Apple Inc.", body["name"])
	assert.Equal(t, "85", body["totalScore"], "decimals are strings")
	assert.Equal(t, "-0.1", body["discount"])
	assert.Nil(t, body["pe"], "missing values are null")
	assert.Nil(t, body["industry"])
	assert.Equal(t, "2025-11-07", body["dataDate"])
	assert.ElementsMatch(t, []interface{}{"momentum", "growth_quality"}, body["passedProfiles"])
}

func TestRouter_PointLookups(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantScore  string
	}{
		{"latest", "/api/undervalued-stocks/AAPL", http.StatusOK, "85"},
		{"explicit date", "/api/undervalued-stocks/AAPL?date=2025-11-06", http.StatusOK, "99"},
		{"history", "/api/undervalued-stocks/%20aapl%20/history?date=2025-11-06", http.StatusOK, "99"},
		{"history without date", "/api/undervalued-stocks/AAPL/history", http.StatusBadRequest, ""},
		{"bad date", "/api/undervalued-stocks/AAPL?date=2025-13-01", http.StatusBadRequest, ""},
		{"missing on date", "/api/undervalued-stocks/MSFT/history?date=2025-11-06", http.StatusNotFound, ""},
		{"unknown ticker", "/api/undervalued-stocks/NOPE", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decodeObject(t, rec)
			if tt.wantScore != "" {
				assert.Equal(t, tt.wantScore, body["totalScore"])
				return
			}
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
		})
	}
}

func TestRouter_Paging(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	rec := get(t, router, "/api/undervalued-stocks/search?size=3&page=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeObject(t, rec)
	assert.Equal(t, float64(4), body["totalElements"])
	assert.Equal(t, float64(2), body["totalPages"])
	assert.Equal(t, float64(1), body["number"])
	assert.Equal(t, false, body["first"])
	assert.Equal(t, true, body["last"])
	assert.Equal(t, "2025-11-07", body["dataDate"])

	content := body["content"].([]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "ZZZ", content[0].(map[string]interface{})["ticker"])

	rec = get(t, router, "/api/undervalued-stocks/profile/swing/paging?date=2025-11-06")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeObject(t, rec)
	assert.Equal(t, float64(1), body["totalElements"])
	assert.Equal(t, float64(20), body["size"])

	// offset page*size would overflow int
	rec = get(t, router, "/api/undervalued-stocks/search?page=4611686018427387904&size=4")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestRouter_SearchFilters(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	rec := get(t, router, "/api/undervalued-stocks/search?profile=momentum&sector=Technology&minScore=80&rankBy=growth")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeObject(t, rec)
	content := body["content"].([]interface{})
	require.Len(t, content, 2)
	assert.Equal(t, "MSFT", content[0].(map[string]interface{})["ticker"])
	assert.Equal(t, "AAPL", content[1].(map[string]interface{})["ticker"])
}

func TestRouter_BadRequests(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	targets := []string{
		"/api/undervalued-stocks/top?limit=abc",
		"/api/undervalued-stocks/top/bogus",
		"/api/undervalued-stocks/filter/score?minScore=90&maxScore=10",
		"/api/undervalued-stocks/filter/score?minScore=ten",
		"/api/undervalued-stocks/filter/market-cap?minMarketCap=5&maxMarketCap=1",
		"/api/undervalued-stocks/search?page=-1",
		"/api/undervalued-stocks/search?size=0",
		"/api/undervalued-stocks/search?rankBy=price",
		"/api/undervalued-stocks/search?date=yesterday",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			rec := get(t, router, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_Stats(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	rec := get(t, router, "/api/undervalued-stocks/stats")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeObject(t, rec)
	assert.Equal(t, "2025-11-07", body["latestDate"])
	assert.Equal(t, float64(4), body["totalStocks"])
	assert.Equal(t, "70", body["averageTotalScore"])

	profiles := body["profileCounts"].(map[string]interface{})
	assert.Len(t, profiles, len(contracts.KnownProfiles))
	assert.Equal(t, float64(2), profiles["momentum"])
	assert.Equal(t, float64(0), profiles["swing"])

	sectors := body["sectorCounts"].([]interface{})
	require.Len(t, sectors, 3)
	assert.Equal(t, map[string]interface{}{"sector": "Technology", "count": float64(2)}, sectors[0])
	assert.Equal(t, map[string]interface{}{"sector": "", "count": float64(1)}, sectors[2])
}

func TestRouter_Sectors(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	rec := get(t, router, "/api/undervalued-stocks/sectors")
	require.Equal(t, http.StatusOK, rec.Code)
	var sectors []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sectors))
	assert.Equal(t, []string{"Healthcare", "Technology"}, sectors)

	rec = get(t, router, "/api/undervalued-stocks/sectors/counts?date=2025-11-06")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-11-06", rec.Header().Get(handlers.DataDateHeader))

	rec = get(t, router, "/api/undervalued-stocks/profile/momentum/count")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeObject(t, rec)
	assert.Equal(t, "momentum", body["profile"])
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, "2025-11-07", body["latestDate"])
}

func TestRouter_EmptyStore(t *testing.T) {
	router := newTestRouter(t, memory.New())

	for _, target := range []string{
		"/api/undervalued-stocks/latest-date",
		"/api/undervalued-stocks/top",
		"/api/undervalued-stocks/stats",
		"/api/undervalued-stocks/AAPL",
	} {
		rec := get(t, router, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}

	rec := get(t, router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeObject(t, rec)
	assert.Equal(t, "UP", body["status"])
	assert.Equal(t, "unavailable", body["dataStatus"])
}

type downStore struct {
	contracts.SnapshotStore
}

func (downStore) LatestDate(context.Context) (time.Time, error) {
	return time.Time{}, contracts.StoreError("latest date", errors.New("dial tcp: connection refused"))
}

func TestRouter_StoreUnavailable(t *testing.T) {
	router := newTestRouter(t, downStore{})

	rec := get(t, router, "/api/undervalued-stocks/top")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

// slowStore blocks every read until the request deadline passes
type slowStore struct {
	contracts.SnapshotStore
}

func (slowStore) LatestDate(ctx context.Context) (time.Time, error) {
	<-ctx.Done()
	return time.Time{}, contracts.StoreError("latest date", ctx.Err())
}

func TestRouter_RequestTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.API.RequestTimeout = 20 * time.Millisecond
	h := handlers.NewSnapshotHandler(screening.NewService(slowStore{}), cfg.API, logger.Nop())
	router := NewRouter(cfg, h, nil, logger.Nop())

	rec := get(t, router, "/api/undervalued-stocks/top")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "request timed out")
}

func TestRouter_LatestDateAndHealth(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	rec := get(t, router, "/api/undervalued-stocks/latest-date")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-11-07", decodeObject(t, rec)["latestDate"])

	rec = get(t, router, "/api/undervalued-stocks/health")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeObject(t, rec)
	assert.Equal(t, "available", body["dataStatus"])
	assert.Equal(t, "2025-11-07", body["latestDataDate"])
}

func TestRouter_NotFoundAndCORS(t *testing.T) {
	router := newTestRouter(t, seededStore(t))

	rec := get(t, router, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/undervalued-stocks/top", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
