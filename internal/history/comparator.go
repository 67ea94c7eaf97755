// Package history resolves the best-available prior observation for a
// contract, degrading through a fixed fallback chain so that irregular
// polling or thin history never gets mistaken for zero volume.
package history

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gregor-nelson/spx/internal/calendar"
	"github.com/gregor-nelson/spx/internal/logging"
	"github.com/gregor-nelson/spx/internal/storage"
)

// Source identifies which fallback tier satisfied a comparison lookup.
type Source string

const (
	// SourceYesterdayHour is the previous trading day's capture within
	// ±1 hour of today's capture time-of-day.
	SourceYesterdayHour Source = "yesterday_hour"
	// SourceYesterdayEOD is the previous trading day's consolidated record.
	SourceYesterdayEOD Source = "yesterday_eod"
	// SourceYesterdayAny is the previous trading day's latest capture, any
	// time of day.
	SourceYesterdayAny Source = "yesterday_any"
	// SourceTwoDaysAgoEOD is the consolidated record from two trading days
	// back, covering gaps after holidays.
	SourceTwoDaysAgoEOD Source = "two_days_ago_eod"
	// SourceNone means no comparison data exists anywhere. Callers must
	// treat this as insufficient history, never as zero volume.
	SourceNone Source = "none"
)

// Reference is the resolved comparison value for one contract.
type Reference struct {
	Volume int64
	Source Source
}

// Found reports whether any comparison data was located.
func (r Reference) Found() bool {
	return r.Source != SourceNone
}

// Comparator looks up historical reference volumes through the tiered
// fallback chain.
type Comparator struct {
	store  storage.ComparisonSource
	window time.Duration
	logger zerolog.Logger
}

// New constructs a Comparator. window bounds the same-hour match in tier 1;
// zero selects the default ±1 hour.
func New(store storage.ComparisonSource, window time.Duration, logger zerolog.Logger) *Comparator {
	if window <= 0 {
		window = time.Hour
	}
	return &Comparator{
		store:  store,
		window: window,
		logger: logging.Component(logger, "comparator"),
	}
}

// Reference resolves the best prior observation for a contract captured at
// capturedAt, stopping at the first tier that yields data:
//
//  1. previous trading day, same time-of-day ±window, intraday
//  2. previous trading day, consolidated end-of-day
//  3. previous trading day, latest intraday capture
//  4. two trading days back, consolidated end-of-day
//
// Same-hour data is the most meaningful baseline for an intraday delta; the
// later tiers trade precision for coverage rather than reporting zero.
func (c *Comparator) Reference(ctx context.Context, ticker string, capturedAt time.Time) (Reference, error) {
	today := calendar.DateOf(capturedAt)
	yesterday := calendar.PrevTradingDay(today)
	twoBack := calendar.PrevTradingDay(yesterday)

	et := capturedAt.In(calendar.Location())
	center := calendar.At(yesterday, et.Hour(), et.Minute())

	volume, found, err := c.store.IntradayVolumeNear(ctx, ticker, yesterday, center, c.window)
	if err != nil {
		return Reference{Source: SourceNone}, err
	}
	if found {
		return Reference{Volume: volume, Source: SourceYesterdayHour}, nil
	}

	volume, found, err = c.store.DailyVolume(ctx, yesterday, ticker)
	if err != nil {
		return Reference{Source: SourceNone}, err
	}
	if found {
		return Reference{Volume: volume, Source: SourceYesterdayEOD}, nil
	}

	volume, found, err = c.store.LatestIntradayVolume(ctx, ticker, yesterday)
	if err != nil {
		return Reference{Source: SourceNone}, err
	}
	if found {
		return Reference{Volume: volume, Source: SourceYesterdayAny}, nil
	}

	volume, found, err = c.store.DailyVolume(ctx, twoBack, ticker)
	if err != nil {
		return Reference{Source: SourceNone}, err
	}
	if found {
		return Reference{Volume: volume, Source: SourceTwoDaysAgoEOD}, nil
	}

	c.logger.Debug().Str("ticker", ticker).Msg("no comparison data in any tier")
	return Reference{Source: SourceNone}, nil
}
