package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gregor-nelson/spx/internal/calendar"
	"github.com/gregor-nelson/spx/internal/storage"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit       int
	UnackedOnly bool
	Stats       bool

	SimilarMoneyness float64
	SimilarDTE       int
	MoneynessTol     float64
	DTETol           int

	AckID    int64
	AckNotes string
}

// Show prints recent alerts, history stats, or a similar-history bucket.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.AckID > 0 {
		if err := store.AcknowledgeAlert(ctx, opts.AckID, opts.AckNotes); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "alert %d acknowledged\n", opts.AckID)
		return nil
	}

	if opts.Stats {
		return showStats(ctx, store)
	}

	if opts.SimilarMoneyness > 0 {
		return a.showSimilar(ctx, store, opts)
	}

	return showAlerts(ctx, store, opts)
}

func showAlerts(ctx context.Context, store *storage.Store, opts ShowOptions) error {
	alerts, err := store.ListRecentAlerts(ctx, opts.Limit, opts.UnackedOnly)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTriggered (ET)\tTicker\tFlags\tVolume\tReference\tSource\tNotional\tAck")

	for _, alert := range alerts {
		ack := ""
		if alert.Acknowledged {
			ack = "yes"
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			alert.ID,
			alert.TriggeredAt.In(calendar.Location()).Format("2006-01-02 15:04"),
			alert.Ticker,
			strings.Join(alert.Flags, ","),
			alert.CurrentVolume,
			alert.ReferenceVolume,
			alert.ReferenceSource,
			alert.Notional.StringFixed(0),
			ack,
		)
	}

	writer.Flush()
	return nil
}

func showStats(ctx context.Context, store *storage.Store) error {
	stats, err := store.DailyHistoryStats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "daily records: %d\n", stats.TotalRecords)
	fmt.Fprintf(os.Stdout, "trading days:  %d\n", stats.TradingDays)
	if stats.EarliestDate != nil && stats.LatestDate != nil {
		fmt.Fprintf(os.Stdout, "date range:    %s .. %s\n",
			calendar.DateString(*stats.EarliestDate), calendar.DateString(*stats.LatestDate))
	}
	return nil
}

func (a *App) showSimilar(ctx context.Context, store *storage.Store, opts ShowOptions) error {
	cutoff := calendar.DateOf(calendar.Now()).AddDate(0, 0, -a.Config.Retention.DailyDays)
	records, err := store.SimilarHistory(ctx, opts.SimilarMoneyness, opts.SimilarDTE, opts.MoneynessTol, opts.DTETol, cutoff)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no comparable history found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tTicker\tMoneyness\tDTE\tVolume\tDelta\tClose")

	for _, rec := range records {
		closePrice := ""
		if rec.ClosePrice != nil {
			closePrice = rec.ClosePrice.StringFixed(2)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%.3f\t%d\t%d\t%d\t%s\n",
			rec.TradeDate.Format(time.DateOnly),
			rec.Ticker,
			rec.Moneyness,
			rec.DTE,
			rec.Volume,
			rec.VolumeDelta,
			closePrice,
		)
	}

	writer.Flush()
	return nil
}
