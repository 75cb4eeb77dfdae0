package screening

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
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

func dec(s string) contracts.Optional[decimal.Decimal] {
	return contracts.Some(decimal.RequireFromString(s))
}

func strPtr(s string) *string {
	return &s
}

func snap(ticker, date, total string, profiles ...string) *contracts.FactorSnapshot {
	return &contracts.FactorSnapshot{
		Ticker:     ticker,
		Date:       day(date),
		TotalScore: num(total),
		Profiles:   profiles,
	}
}

func tickers(snaps []*contracts.FactorSnapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Ticker
	}
	return out
}
