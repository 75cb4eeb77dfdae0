package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/moner050/ddal-kkak/backend/internal/api/handlers"
	"github.com/moner050/ddal-kkak/backend/pkg/config"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
)

// APIPrefix is the base path of the screening endpoints
const APIPrefix = "/api/undervalued-stocks"

// NewRouter creates and configures the HTTP router.
// limiter may be nil to disable rate limiting.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(cfg *config.Config, h *handlers.SnapshotHandler, limiter *RateLimiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix(APIPrefix).Subrouter()

	// Static paths first: /{ticker} would shadow them
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/latest-date", h.GetLatestDate).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/search", h.Search).Methods(http.MethodGet)

	api.HandleFunc("/top", h.GetTop).Methods(http.MethodGet)
	api.HandleFunc("/top/{score}", h.GetTopByScore).Methods(http.MethodGet)

	// Profiles
	api.HandleFunc("/profile/undervalued-quality", h.GetUndervaluedQuality).Methods(http.MethodGet)
	api.HandleFunc("/profile/{name}", h.GetByProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile/{name}/paging", h.GetByProfilePage).Methods(http.MethodGet)
	api.HandleFunc("/profile/{name}/count", h.GetProfileCount).Methods(http.MethodGet)

	// Sectors
	api.HandleFunc("/sectors", h.GetSectors).Methods(http.MethodGet)
	api.HandleFunc("/sectors/counts", h.GetSectorCounts).Methods(http.MethodGet)
	api.HandleFunc("/sector/{name}/top", h.GetTopBySector).Methods(http.MethodGet)

	// Filters
	api.HandleFunc("/filter/score", h.GetByScoreRange).Methods(http.MethodGet)
	api.HandleFunc("/filter/market-cap", h.GetByMarketCapRange).Methods(http.MethodGet)
	api.HandleFunc("/filter/most-undervalued", h.GetMostUndervalued).Methods(http.MethodGet)

	// Point lookups
	api.HandleFunc("/{ticker}", h.GetByTicker).Methods(http.MethodGet)
	api.HandleFunc("/{ticker}/history", h.GetHistory).Methods(http.MethodGet)

	// Apply middleware
	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))
	r.Use(timeoutMiddleware(cfg.API.RequestTimeout))
	if limiter != nil {
		api.Use(limiter.Middleware)
	}

	return corsMiddleware(r)
}
