package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/gregor-nelson/spx/internal/calendar"
	"github.com/gregor-nelson/spx/internal/storage"
)

// ExportOptions hold parameters for exporting a contract's daily history.
type ExportOptions struct {
	Ticker       string
	LookbackDays int
	CSVPath      string
	PNGPath      string
	MaxPoints    int
}

// Export renders a contract's daily volume history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Ticker == "" {
		return errors.New("--ticker is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = a.Config.Retention.DailyDays
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	cutoff := calendar.DateOf(calendar.Now()).AddDate(0, 0, -opts.LookbackDays)
	points, err := store.VolumeHistory(ctx, opts.Ticker, cutoff)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		a.Logger.Info().Str("ticker", opts.Ticker).Msg("no history found for export window")
		return nil
	}

	downsampled := downsamplePoints(points, opts.MaxPoints)
	a.Logger.Info().
		Str("ticker", opts.Ticker).
		Int("total", len(points)).
		Int("exported", len(downsampled)).
		Msg("exporting volume history")

	if opts.CSVPath != "" {
		if err := writePointsCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writePointsPNG(opts.PNGPath, opts.Ticker, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsamplePoints(points []storage.DailyPoint, max int) []storage.DailyPoint {
	if max <= 0 || len(points) <= max {
		return points
	}

	result := make([]storage.DailyPoint, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writePointsCSV(path string, points []storage.DailyPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"trade_date", "volume", "volume_delta", "open_interest", "close_price"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, point := range points {
		openInterest := ""
		if point.OpenInterest != nil {
			openInterest = strconv.FormatInt(*point.OpenInterest, 10)
		}
		closePrice := ""
		if point.ClosePrice != nil {
			closePrice = point.ClosePrice.String()
		}
		record := []string{
			point.TradeDate.Format(time.DateOnly),
			strconv.FormatInt(point.Volume, 10),
			strconv.FormatInt(point.VolumeDelta, 10),
			openInterest,
			closePrice,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writePointsPNG(path, ticker string, points []storage.DailyPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	volume := make([]float64, len(points))
	closePrice := make([]float64, len(points))

	for i, point := range points {
		x[i] = point.TradeDate
		volume[i] = float64(point.Volume)
		if point.ClosePrice != nil {
			closePrice[i] = point.ClosePrice.InexactFloat64()
		}
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  ticker,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Volume (contracts)",
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Close ($)",
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Volume",
				XValues: x,
				YValues: volume,
			},
			chart.TimeSeries{
				Name:    "Close",
				XValues: x,
				YValues: closePrice,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
