package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Greeks holds optional option sensitivities. Deep out-of-the-money
// contracts legitimately lack them; nil means absent, not zero.
type Greeks struct {
	Delta *float64
	Gamma *float64
	Theta *float64
	Vega  *float64
}

// IntradaySnapshot is one contract's state at one capture instant. The
// (Ticker, CaptureDate, CapturedAt) triple is the unique identity.
type IntradaySnapshot struct {
	Ticker       string
	CaptureDate  time.Time
	CapturedAt   time.Time
	Expiration   time.Time
	Strike       decimal.Decimal
	ContractKind string

	UnderlyingPrice decimal.Decimal
	Moneyness       float64
	DTE             int

	VolumeCumulative int64
	VolumeDelta      int64

	OpenInterest *int64
	ClosePrice   *decimal.Decimal
	HighPrice    *decimal.Decimal
	LowPrice     *decimal.Decimal
	VWAP         *decimal.Decimal
	Transactions *int64

	Greeks     Greeks
	ImpliedVol *float64

	MarketStatus string
}

// DailyRecord is the canonical end-of-day value for one contract on one
// trading day, produced by consolidation (last capture wins).
type DailyRecord struct {
	TradeDate    time.Time
	Ticker       string
	Expiration   time.Time
	Strike       decimal.Decimal
	ContractKind string

	SpotClose decimal.Decimal
	Moneyness float64
	DTE       int

	Volume      int64
	VolumeDelta int64

	OpenInterest *int64
	ClosePrice   *decimal.Decimal
	HighPrice    *decimal.Decimal
	LowPrice     *decimal.Decimal
	VWAP         *decimal.Decimal
	Transactions *int64

	Greeks     Greeks
	ImpliedVol *float64
}

// AlertRecord is an immutable audit row for a detected anomaly.
type AlertRecord struct {
	ID           int64
	TriggeredAt  time.Time
	Ticker       string
	Expiration   time.Time
	Strike       decimal.Decimal
	ContractKind string
	Moneyness    float64
	DTE          int

	Flags           []string
	CurrentVolume   int64
	ReferenceVolume int64
	ReferenceSource string
	Notional        decimal.Decimal

	Acknowledged   bool
	AcknowledgedAt *time.Time
	Notes          *string
	CreatedAt      time.Time
}

// DailyPoint is a slim daily_history projection for exports.
type DailyPoint struct {
	TradeDate    time.Time
	Volume       int64
	VolumeDelta  int64
	OpenInterest *int64
	ClosePrice   *decimal.Decimal
}

// HistoryStats summarises daily_history coverage.
type HistoryStats struct {
	TotalRecords int64
	TradingDays  int64
	EarliestDate *time.Time
	LatestDate   *time.Time
}
