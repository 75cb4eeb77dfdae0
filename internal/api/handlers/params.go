package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/internal/screening"
)

var errBadParam = errors.New("bad request parameter")

// Default limits per endpoint
const (
	defaultTopLimit      = 100
	defaultProfileLimit  = 50
	defaultSectorLimit   = 20
	defaultFilterLimit   = 50
	defaultUndervalued   = 30
	defaultScoreTopLimit = 20
)

func badParam(name, value string, err error) error {
	return fmt.Errorf("%w: %s=%q: %v", errBadParam, name, value, err)
}

// queryInt reads an integer parameter, def when absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badParam(name, raw, err)
	}
	return v, nil
}

// queryLimit reads ?limit=; zero or negative means unlimited
func queryLimit(r *http.Request, def int) (int, error) {
	return queryInt(r, "limit", def)
}

// queryDate reads an optional YYYY-MM-DD parameter
func queryDate(r *http.Request, name string) (contracts.Optional[time.Time], error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return contracts.None[time.Time](), nil
	}
	d, err := contracts.ParseDate(raw)
	if err != nil {
		return contracts.None[time.Time](), badParam(name, raw, err)
	}
	return contracts.Some(d), nil
}

// queryDecimal reads an optional decimal parameter
func queryDecimal(r *http.Request, name string) (contracts.Optional[decimal.Decimal], error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return contracts.None[decimal.Decimal](), nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return contracts.None[decimal.Decimal](), badParam(name, raw, err)
	}
	return contracts.Some(v), nil
}

// queryString reads an optional non-empty string parameter
func queryString(r *http.Request, name string) contracts.Optional[string] {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return contracts.None[string]()
	}
	return contracts.Some(raw)
}

// queryPage reads ?page=&size=. Size defaults to defaultSize and is capped at maxSize;
// range checks are left to the service.
func queryPage(r *http.Request, defaultSize, maxSize int) (screening.PageRequest, error) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		return screening.PageRequest{}, err
	}
	size, err := queryInt(r, "size", defaultSize)
	if err != nil {
		return screening.PageRequest{}, err
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return screening.PageRequest{Page: page, Size: size}, nil
}

// queryScoreField reads an optional ranking field
func queryScoreField(r *http.Request, name string) (contracts.Optional[contracts.ScoreField], error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return contracts.None[contracts.ScoreField](), nil
	}
	f, err := contracts.ParseScoreField(raw)
	if err != nil {
		return contracts.None[contracts.ScoreField](), badParam(name, raw, err)
	}
	return contracts.Some(f), nil
}
