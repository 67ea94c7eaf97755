package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoUnderlying indicates the provider returned data without an
// underlying index price. Moneyness cannot be computed without it, so the
// whole capture is unusable; retrying will not help within a cycle.
var ErrNoUnderlying = errors.New("underlying price unavailable")

// ContractData is one option contract as reported by the provider. Optional
// fields stay nil when the provider omits them; deep out-of-the-money
// contracts routinely lack greeks.
type ContractData struct {
	Ticker       string
	Expiration   time.Time
	Strike       decimal.Decimal
	ContractKind string

	Volume       *int64
	OpenInterest *int64
	ClosePrice   *decimal.Decimal
	HighPrice    *decimal.Decimal
	LowPrice     *decimal.Decimal
	VWAP         *decimal.Decimal
	Transactions *int64

	Delta      *float64
	Gamma      *float64
	Theta      *float64
	Vega       *float64
	ImpliedVol *float64

	MarketStatus string
}

// ChainSnapshot is the result of one chain capture. An empty Contracts
// slice with a nil error is a valid result (e.g. a quiet half-day), distinct
// from a fetch failure.
type ChainSnapshot struct {
	UnderlyingPrice decimal.Decimal
	Contracts       []ContractData
}

// ChainFetcher retrieves the current state of the monitored option chain.
type ChainFetcher interface {
	FetchChain(ctx context.Context) (*ChainSnapshot, error)
}
