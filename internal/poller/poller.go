package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gregor-nelson/spx/internal/alerting"
	"github.com/gregor-nelson/spx/internal/calendar"
	"github.com/gregor-nelson/spx/internal/detector"
	"github.com/gregor-nelson/spx/internal/fetcher"
	"github.com/gregor-nelson/spx/internal/history"
	"github.com/gregor-nelson/spx/internal/logging"
	"github.com/gregor-nelson/spx/internal/retry"
	"github.com/gregor-nelson/spx/internal/storage"
)

// Summary reports the outcome of one capture cycle.
type Summary struct {
	CapturedAt time.Time
	Contracts  int
	Written    int
	Alerts     int
}

// Cycle runs one fetch-transform-write-detect pass over the option chain.
type Cycle struct {
	fetcher    fetcher.ChainFetcher
	writer     storage.SnapshotWriter
	alerts     storage.AlertStore
	comparator *history.Comparator
	detector   *detector.Detector
	notifier   alerting.Notifier
	retryPol   retry.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// Options wires the collaborators of a capture cycle. Notifier may be nil.
type Options struct {
	Fetcher    fetcher.ChainFetcher
	Writer     storage.SnapshotWriter
	Alerts     storage.AlertStore
	Comparator *history.Comparator
	Detector   *detector.Detector
	Notifier   alerting.Notifier
	Retry      retry.Policy
	Now        func() time.Time
}

// New constructs a capture cycle.
func New(opts Options, logger zerolog.Logger) *Cycle {
	now := opts.Now
	if now == nil {
		now = calendar.Now
	}
	return &Cycle{
		fetcher:    opts.Fetcher,
		writer:     opts.Writer,
		alerts:     opts.Alerts,
		comparator: opts.Comparator,
		detector:   opts.Detector,
		notifier:   opts.Notifier,
		retryPol:   opts.Retry,
		logger:     logging.Component(logger, "poller"),
		now:        now,
	}
}

// Run executes one full capture cycle. A failed fetch after all retry
// attempts aborts the cycle without touching storage; per-contract
// detection failures are logged and skipped so one bad contract cannot
// sink the rest of the capture.
func (c *Cycle) Run(ctx context.Context) (Summary, error) {
	capturedAt := c.now()
	summary := Summary{CapturedAt: capturedAt}

	var chain *fetcher.ChainSnapshot
	err := retry.Do(ctx, c.retryPol, func(ctx context.Context) error {
		snap, ferr := c.fetcher.FetchChain(ctx)
		if ferr != nil {
			if errors.Is(ferr, fetcher.ErrNoUnderlying) {
				return retry.Permanent(ferr)
			}
			return ferr
		}
		chain = snap
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("fetch chain: %w", err)
	}

	summary.Contracts = len(chain.Contracts)
	if len(chain.Contracts) == 0 {
		c.logger.Info().Time("captured_at", capturedAt).Msg("no contracts in range, empty capture")
		return summary, nil
	}

	batch := c.transform(chain, capturedAt)

	written, err := c.writer.UpsertSnapshots(ctx, batch)
	if err != nil {
		return summary, fmt.Errorf("write snapshots: %w", err)
	}
	summary.Written = written

	summary.Alerts = c.detect(ctx, batch)

	c.logger.Info().
		Time("captured_at", capturedAt).
		Int("contracts", summary.Contracts).
		Int("written", summary.Written).
		Int("alerts", summary.Alerts).
		Msg("capture cycle complete")
	return summary, nil
}

func (c *Cycle) transform(chain *fetcher.ChainSnapshot, capturedAt time.Time) []storage.IntradaySnapshot {
	captureDate := calendar.DateOf(capturedAt)
	spot := chain.UnderlyingPrice.InexactFloat64()

	batch := make([]storage.IntradaySnapshot, 0, len(chain.Contracts))
	for _, contract := range chain.Contracts {
		var volume int64
		if contract.Volume != nil {
			volume = *contract.Volume
		}

		moneyness := 0.0
		if spot > 0 {
			moneyness = contract.Strike.InexactFloat64() / spot
		}

		dte := calendar.DaysBetween(captureDate, contract.Expiration)

		batch = append(batch, storage.IntradaySnapshot{
			Ticker:           contract.Ticker,
			CaptureDate:      captureDate,
			CapturedAt:       capturedAt,
			Expiration:       calendar.DateOf(contract.Expiration),
			Strike:           contract.Strike,
			ContractKind:     contract.ContractKind,
			UnderlyingPrice:  chain.UnderlyingPrice,
			Moneyness:        moneyness,
			DTE:              dte,
			VolumeCumulative: volume,
			OpenInterest:     contract.OpenInterest,
			ClosePrice:       contract.ClosePrice,
			HighPrice:        contract.HighPrice,
			LowPrice:         contract.LowPrice,
			VWAP:             contract.VWAP,
			Transactions:     contract.Transactions,
			Greeks: storage.Greeks{
				Delta: contract.Delta,
				Gamma: contract.Gamma,
				Theta: contract.Theta,
				Vega:  contract.Vega,
			},
			ImpliedVol:   contract.ImpliedVol,
			MarketStatus: contract.MarketStatus,
		})
	}
	return batch
}

func (c *Cycle) detect(ctx context.Context, batch []storage.IntradaySnapshot) int {
	alerts := 0
	for _, snap := range batch {
		ref, err := c.comparator.Reference(ctx, snap.Ticker, snap.CapturedAt)
		if err != nil {
			c.logger.Warn().Err(err).Str("ticker", snap.Ticker).Msg("history lookup failed, skipping contract")
			continue
		}

		result := c.detector.Evaluate(snap, ref)
		if !result.Flagged() {
			continue
		}

		record := storage.AlertRecord{
			TriggeredAt:     snap.CapturedAt,
			Ticker:          snap.Ticker,
			Expiration:      snap.Expiration,
			Strike:          snap.Strike,
			ContractKind:    snap.ContractKind,
			Moneyness:       snap.Moneyness,
			DTE:             snap.DTE,
			Flags:           result.FlagStrings(),
			CurrentVolume:   result.CurrentVolume,
			ReferenceVolume: result.ReferenceVolume,
			ReferenceSource: string(result.ReferenceSource),
			Notional:        result.Notional,
		}

		stored, err := c.alerts.InsertAlert(ctx, record)
		if err != nil {
			c.logger.Error().Err(err).Str("ticker", snap.Ticker).Msg("persist alert failed")
			continue
		}
		alerts++

		c.logger.Warn().
			Str("ticker", stored.Ticker).
			Strs("flags", stored.Flags).
			Int64("volume", stored.CurrentVolume).
			Int64("reference", stored.ReferenceVolume).
			Str("source", stored.ReferenceSource).
			Msg("volume anomaly flagged")

		if c.notifier != nil {
			c.deliver(ctx, stored)
		}
	}
	return alerts
}

// deliver is best effort. A down channel must not fail the capture.
func (c *Cycle) deliver(ctx context.Context, alert storage.AlertRecord) {
	note := alerting.Notification{
		TriggeredAt:     alert.TriggeredAt,
		Ticker:          alert.Ticker,
		Expiration:      alert.Expiration,
		Strike:          alert.Strike,
		ContractKind:    alert.ContractKind,
		Moneyness:       alert.Moneyness,
		DTE:             alert.DTE,
		Flags:           alert.Flags,
		CurrentVolume:   alert.CurrentVolume,
		ReferenceVolume: alert.ReferenceVolume,
		ReferenceSource: alert.ReferenceSource,
		Notional:        alert.Notional,
	}
	if err := c.notifier.Notify(ctx, note); err != nil {
		c.logger.Warn().Err(err).Str("ticker", alert.Ticker).Msg("alert delivery failed")
	}
}
