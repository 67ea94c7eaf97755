package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	priorVolumeSQL = `SELECT volume_cumulative
    FROM intraday_snapshots
    WHERE ticker = $1
      AND capture_date = $2
      AND captured_at < $3
    ORDER BY captured_at DESC
    LIMIT 1;`

	upsertSnapshotSQL = `INSERT INTO intraday_snapshots (
        ticker, capture_date, captured_at, expiration, strike, contract_kind,
        underlying_price, moneyness, dte,
        volume_cumulative, volume_delta,
        open_interest, close_price, high_price, low_price, vwap, transactions,
        greek_delta, greek_gamma, greek_theta, greek_vega, implied_vol,
        market_status
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23
    )
    ON CONFLICT (ticker, capture_date, captured_at) DO UPDATE
    SET
        expiration        = EXCLUDED.expiration,
        strike            = EXCLUDED.strike,
        contract_kind     = EXCLUDED.contract_kind,
        underlying_price  = EXCLUDED.underlying_price,
        moneyness         = EXCLUDED.moneyness,
        dte               = EXCLUDED.dte,
        volume_cumulative = EXCLUDED.volume_cumulative,
        volume_delta      = EXCLUDED.volume_delta,
        open_interest     = EXCLUDED.open_interest,
        close_price       = EXCLUDED.close_price,
        high_price        = EXCLUDED.high_price,
        low_price         = EXCLUDED.low_price,
        vwap              = EXCLUDED.vwap,
        transactions      = EXCLUDED.transactions,
        greek_delta       = EXCLUDED.greek_delta,
        greek_gamma       = EXCLUDED.greek_gamma,
        greek_theta       = EXCLUDED.greek_theta,
        greek_vega        = EXCLUDED.greek_vega,
        implied_vol       = EXCLUDED.implied_vol,
        market_status     = EXCLUDED.market_status;`

	consolidateDaySQL = `INSERT INTO daily_history (
        trade_date, ticker, expiration, strike, contract_kind,
        spot_close, moneyness, dte,
        volume, volume_delta,
        open_interest, close_price, high_price, low_price, vwap, transactions,
        greek_delta, greek_gamma, greek_theta, greek_vega, implied_vol
    )
    SELECT DISTINCT ON (s.ticker)
        s.capture_date, s.ticker, s.expiration, s.strike, s.contract_kind,
        s.underlying_price, s.moneyness, s.dte,
        s.volume_cumulative, s.volume_delta,
        s.open_interest, s.close_price, s.high_price, s.low_price, s.vwap, s.transactions,
        s.greek_delta, s.greek_gamma, s.greek_theta, s.greek_vega, s.implied_vol
    FROM intraday_snapshots s
    WHERE s.capture_date = $1
    ORDER BY s.ticker, s.captured_at DESC
    ON CONFLICT (trade_date, ticker) DO UPDATE
    SET
        expiration   = EXCLUDED.expiration,
        strike       = EXCLUDED.strike,
        contract_kind = EXCLUDED.contract_kind,
        spot_close   = EXCLUDED.spot_close,
        moneyness    = EXCLUDED.moneyness,
        dte          = EXCLUDED.dte,
        volume       = EXCLUDED.volume,
        volume_delta = EXCLUDED.volume_delta,
        open_interest = EXCLUDED.open_interest,
        close_price  = EXCLUDED.close_price,
        high_price   = EXCLUDED.high_price,
        low_price    = EXCLUDED.low_price,
        vwap         = EXCLUDED.vwap,
        transactions = EXCLUDED.transactions,
        greek_delta  = EXCLUDED.greek_delta,
        greek_gamma  = EXCLUDED.greek_gamma,
        greek_theta  = EXCLUDED.greek_theta,
        greek_vega   = EXCLUDED.greek_vega,
        implied_vol  = EXCLUDED.implied_vol;`

	cleanupIntradaySQL = `DELETE FROM intraday_snapshots WHERE capture_date < $1;`
	cleanupDailySQL    = `DELETE FROM daily_history WHERE trade_date < $1;`

	intradayVolumeNearSQL = `SELECT volume_cumulative
    FROM intraday_snapshots
    WHERE ticker = $1
      AND capture_date = $2
      AND captured_at BETWEEN $3 AND $4
    ORDER BY ABS(EXTRACT(EPOCH FROM (captured_at - $5::timestamptz))) ASC
    LIMIT 1;`

	dailyVolumeSQL = `SELECT volume FROM daily_history
    WHERE trade_date = $1 AND ticker = $2
    LIMIT 1;`

	latestIntradayVolumeSQL = `SELECT volume_cumulative
    FROM intraday_snapshots
    WHERE ticker = $1 AND capture_date = $2
    ORDER BY captured_at DESC
    LIMIT 1;`

	similarHistorySQL = `SELECT
        trade_date, ticker, expiration, strike, contract_kind,
        spot_close, moneyness, dte,
        volume, volume_delta,
        open_interest, close_price, high_price, low_price, vwap, transactions,
        greek_delta, greek_gamma, greek_theta, greek_vega, implied_vol
    FROM daily_history
    WHERE moneyness BETWEEN $1 AND $2
      AND dte BETWEEN $3 AND $4
      AND trade_date >= $5
    ORDER BY trade_date DESC;`

	volumeHistorySQL = `SELECT trade_date, volume, volume_delta, open_interest, close_price
    FROM daily_history
    WHERE ticker = $1 AND trade_date >= $2
    ORDER BY trade_date;`

	historyStatsSQL = `SELECT
        COUNT(*),
        COUNT(DISTINCT trade_date),
        MIN(trade_date),
        MAX(trade_date)
    FROM daily_history;`

	insertAlertSQL = `INSERT INTO alerts (
        triggered_at, ticker, expiration, strike, contract_kind,
        moneyness, dte, flags,
        current_volume, reference_volume, reference_source, notional
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
    )
    RETURNING id, created_at;`

	listRecentAlertsSQL = `SELECT
        id, triggered_at, ticker, expiration, strike, contract_kind,
        moneyness, dte, flags,
        current_volume, reference_volume, reference_source, notional,
        acknowledged, acknowledged_at, notes, created_at
    FROM alerts
    WHERE ($2 = FALSE OR acknowledged = FALSE)
    ORDER BY triggered_at DESC
    LIMIT $1;`

	acknowledgeAlertSQL = `UPDATE alerts
    SET acknowledged = TRUE, acknowledged_at = now(), notes = $2
    WHERE id = $1;`
)

// SnapshotWriter persists capture batches.
type SnapshotWriter interface {
	UpsertSnapshots(ctx context.Context, batch []IntradaySnapshot) (int, error)
}

// Consolidator covers end-of-day operations.
type Consolidator interface {
	ConsolidateDay(ctx context.Context, tradeDate time.Time) (int, error)
	CleanupIntraday(ctx context.Context, cutoff time.Time) (int64, error)
	CleanupDaily(ctx context.Context, cutoff time.Time) (int64, error)
}

// ComparisonSource is the query surface the historical comparator needs.
type ComparisonSource interface {
	IntradayVolumeNear(ctx context.Context, ticker string, day, center time.Time, window time.Duration) (int64, bool, error)
	DailyVolume(ctx context.Context, day time.Time, ticker string) (int64, bool, error)
	LatestIntradayVolume(ctx context.Context, ticker string, day time.Time) (int64, bool, error)
}

// AlertStore defines operations for the append-only alert log.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int, unackedOnly bool) ([]AlertRecord, error)
	AcknowledgeAlert(ctx context.Context, id int64, notes string) error
}

// Store aggregates access to snapshots, daily history, and alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertSnapshots writes a capture batch in one transaction. Each row's
// volume_delta is computed against the most recent snapshot for the same
// contract and date with a strictly earlier timestamp; resubmitting an
// identical (ticker, date, timestamp) replaces the row instead of
// duplicating it. The batch commits entirely or not at all.
func (s *Store) UpsertSnapshots(ctx context.Context, batch []IntradaySnapshot) (int, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	ordered := make([]IntradaySnapshot, len(batch))
	copy(ordered, batch)
	sortByCapture(ordered)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin snapshot batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range ordered {
		snap := &ordered[i]

		var prior *int64
		var priorVolume int64
		scanErr := tx.QueryRow(ctx, priorVolumeSQL, snap.Ticker, snap.CaptureDate, snap.CapturedAt).Scan(&priorVolume)
		switch {
		case scanErr == nil:
			prior = &priorVolume
		case errors.Is(scanErr, pgx.ErrNoRows):
			// first capture of the day for this contract
		default:
			return 0, fmt.Errorf("lookup prior volume for %s: %w", snap.Ticker, scanErr)
		}

		snap.VolumeDelta = deltaFrom(snap.VolumeCumulative, prior)

		if _, execErr := tx.Exec(ctx, upsertSnapshotSQL,
			snap.Ticker,
			snap.CaptureDate,
			snap.CapturedAt,
			snap.Expiration,
			snap.Strike.String(),
			snap.ContractKind,
			snap.UnderlyingPrice.String(),
			snap.Moneyness,
			snap.DTE,
			snap.VolumeCumulative,
			snap.VolumeDelta,
			snap.OpenInterest,
			nullDecimal(snap.ClosePrice),
			nullDecimal(snap.HighPrice),
			nullDecimal(snap.LowPrice),
			nullDecimal(snap.VWAP),
			snap.Transactions,
			snap.Greeks.Delta,
			snap.Greeks.Gamma,
			snap.Greeks.Theta,
			snap.Greeks.Vega,
			snap.ImpliedVol,
			snap.MarketStatus,
		); execErr != nil {
			return 0, fmt.Errorf("upsert snapshot %s@%s: %w", snap.Ticker, snap.CapturedAt.Format(time.RFC3339), execErr)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit snapshot batch: %w", err)
	}
	return len(ordered), nil
}

// ConsolidateDay collapses the day's captures into daily_history, one row
// per contract, taking the snapshot with the latest capture timestamp.
// Re-running for the same date replaces rows with identical values.
func (s *Store) ConsolidateDay(ctx context.Context, tradeDate time.Time) (int, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, consolidateDaySQL, tradeDate)
	if execErr != nil {
		return 0, fmt.Errorf("consolidate day %s: %w", tradeDate.Format("2006-01-02"), execErr)
	}
	return int(tag.RowsAffected()), nil
}

// CleanupIntraday deletes intraday rows with capture_date strictly before
// the cutoff. Rows exactly at the boundary are kept.
func (s *Store) CleanupIntraday(ctx context.Context, cutoff time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, cleanupIntradaySQL, cutoff)
	if execErr != nil {
		return 0, fmt.Errorf("cleanup intraday: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

// CleanupDaily deletes daily_history rows with trade_date strictly before
// the cutoff.
func (s *Store) CleanupDaily(ctx context.Context, cutoff time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, cleanupDailySQL, cutoff)
	if execErr != nil {
		return 0, fmt.Errorf("cleanup daily: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

// IntradayVolumeNear finds the snapshot volume closest to center within
// ±window on the given date, preferring the nearest capture time.
func (s *Store) IntradayVolumeNear(ctx context.Context, ticker string, day, center time.Time, window time.Duration) (int64, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, false, err
	}
	var volume int64
	scanErr := pool.QueryRow(ctx, intradayVolumeNearSQL,
		ticker, day, center.Add(-window), center.Add(window), center,
	).Scan(&volume)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if scanErr != nil {
		return 0, false, fmt.Errorf("intraday volume near: %w", scanErr)
	}
	return volume, true, nil
}

// DailyVolume returns the consolidated end-of-day volume for a contract.
func (s *Store) DailyVolume(ctx context.Context, day time.Time, ticker string) (int64, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, false, err
	}
	var volume int64
	scanErr := pool.QueryRow(ctx, dailyVolumeSQL, day, ticker).Scan(&volume)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if scanErr != nil {
		return 0, false, fmt.Errorf("daily volume: %w", scanErr)
	}
	return volume, true, nil
}

// LatestIntradayVolume returns the most recent capture volume for a
// contract on the given date, any time of day.
func (s *Store) LatestIntradayVolume(ctx context.Context, ticker string, day time.Time) (int64, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, false, err
	}
	var volume int64
	scanErr := pool.QueryRow(ctx, latestIntradayVolumeSQL, ticker, day).Scan(&volume)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if scanErr != nil {
		return 0, false, fmt.Errorf("latest intraday volume: %w", scanErr)
	}
	return volume, true, nil
}

// SimilarHistory returns daily records with comparable moneyness and DTE
// from the lookback window, most recent first.
func (s *Store) SimilarHistory(ctx context.Context, moneyness float64, dte int, moneynessTol float64, dteTol int, cutoff time.Time) ([]DailyRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, similarHistorySQL,
		moneyness-moneynessTol, moneyness+moneynessTol,
		dte-dteTol, dte+dteTol,
		cutoff,
	)
	if queryErr != nil {
		return nil, fmt.Errorf("similar history: %w", queryErr)
	}
	defer rows.Close()

	records := make([]DailyRecord, 0)
	for rows.Next() {
		rec, scanErr := scanDailyRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// VolumeHistory returns a contract's daily volume series since cutoff.
func (s *Store) VolumeHistory(ctx context.Context, ticker string, cutoff time.Time) ([]DailyPoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, volumeHistorySQL, ticker, cutoff)
	if queryErr != nil {
		return nil, fmt.Errorf("volume history: %w", queryErr)
	}
	defer rows.Close()

	points := make([]DailyPoint, 0)
	for rows.Next() {
		var p DailyPoint
		var oi sql.NullInt64
		var closeStr sql.NullString
		if err := rows.Scan(&p.TradeDate, &p.Volume, &p.VolumeDelta, &oi, &closeStr); err != nil {
			return nil, err
		}
		if oi.Valid {
			v := oi.Int64
			p.OpenInterest = &v
		}
		if closeStr.Valid {
			d, convErr := decimal.NewFromString(closeStr.String)
			if convErr != nil {
				return nil, fmt.Errorf("parse close price: %w", convErr)
			}
			p.ClosePrice = &d
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// DailyHistoryStats summarises daily_history coverage.
func (s *Store) DailyHistoryStats(ctx context.Context) (HistoryStats, error) {
	pool, err := s.getPool()
	if err != nil {
		return HistoryStats{}, err
	}

	var stats HistoryStats
	var earliest, latest sql.NullTime
	if scanErr := pool.QueryRow(ctx, historyStatsSQL).Scan(&stats.TotalRecords, &stats.TradingDays, &earliest, &latest); scanErr != nil {
		return HistoryStats{}, fmt.Errorf("history stats: %w", scanErr)
	}
	if earliest.Valid {
		t := earliest.Time
		stats.EarliestDate = &t
	}
	if latest.Valid {
		t := latest.Time
		stats.LatestDate = &t
	}
	return stats, nil
}

// InsertAlert appends an alert row. Alerts are never updated in place apart
// from acknowledgement.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.TriggeredAt,
		alert.Ticker,
		alert.Expiration,
		alert.Strike.String(),
		alert.ContractKind,
		alert.Moneyness,
		alert.DTE,
		alert.Flags,
		alert.CurrentVolume,
		alert.ReferenceVolume,
		alert.ReferenceSource,
		alert.Notional.String(),
	)

	if scanErr := row.Scan(&alert.ID, &alert.CreatedAt); scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return alert, nil
}

// ListRecentAlerts returns the latest alerts, optionally only
// unacknowledged ones.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int, unackedOnly bool) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit, unackedOnly)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		var strikeStr, notionalStr string
		var ackedAt sql.NullTime
		var notes sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.TriggeredAt,
			&rec.Ticker,
			&rec.Expiration,
			&strikeStr,
			&rec.ContractKind,
			&rec.Moneyness,
			&rec.DTE,
			&rec.Flags,
			&rec.CurrentVolume,
			&rec.ReferenceVolume,
			&rec.ReferenceSource,
			&notionalStr,
			&rec.Acknowledged,
			&ackedAt,
			&notes,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		rec.Strike, convErr = decimal.NewFromString(strikeStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse strike: %w", convErr)
		}
		rec.Notional, convErr = decimal.NewFromString(notionalStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse notional: %w", convErr)
		}
		if ackedAt.Valid {
			t := ackedAt.Time
			rec.AcknowledgedAt = &t
		}
		if notes.Valid {
			n := notes.String
			rec.Notes = &n
		}

		alerts = append(alerts, rec)
	}
	return alerts, rows.Err()
}

// AcknowledgeAlert marks an alert handled.
func (s *Store) AcknowledgeAlert(ctx context.Context, id int64, notes string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	tag, execErr := pool.Exec(ctx, acknowledgeAlertSQL, id, notes)
	if execErr != nil {
		return fmt.Errorf("acknowledge alert: %w", execErr)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanDailyRecord(rows pgx.Rows) (DailyRecord, error) {
	var (
		rec          DailyRecord
		strikeStr    string
		spotStr      sql.NullString
		oi           sql.NullInt64
		closeStr     sql.NullString
		highStr      sql.NullString
		lowStr       sql.NullString
		vwapStr      sql.NullString
		transactions sql.NullInt64
		gDelta       sql.NullFloat64
		gGamma       sql.NullFloat64
		gTheta       sql.NullFloat64
		gVega        sql.NullFloat64
		iv           sql.NullFloat64
	)

	if err := rows.Scan(
		&rec.TradeDate,
		&rec.Ticker,
		&rec.Expiration,
		&strikeStr,
		&rec.ContractKind,
		&spotStr,
		&rec.Moneyness,
		&rec.DTE,
		&rec.Volume,
		&rec.VolumeDelta,
		&oi,
		&closeStr,
		&highStr,
		&lowStr,
		&vwapStr,
		&transactions,
		&gDelta,
		&gGamma,
		&gTheta,
		&gVega,
		&iv,
	); err != nil {
		return DailyRecord{}, err
	}

	var convErr error
	rec.Strike, convErr = decimal.NewFromString(strikeStr)
	if convErr != nil {
		return DailyRecord{}, fmt.Errorf("parse strike: %w", convErr)
	}
	if spotStr.Valid {
		rec.SpotClose, convErr = decimal.NewFromString(spotStr.String)
		if convErr != nil {
			return DailyRecord{}, fmt.Errorf("parse spot close: %w", convErr)
		}
	}
	if oi.Valid {
		v := oi.Int64
		rec.OpenInterest = &v
	}
	if rec.ClosePrice, convErr = parseNullDecimal(closeStr); convErr != nil {
		return DailyRecord{}, convErr
	}
	if rec.HighPrice, convErr = parseNullDecimal(highStr); convErr != nil {
		return DailyRecord{}, convErr
	}
	if rec.LowPrice, convErr = parseNullDecimal(lowStr); convErr != nil {
		return DailyRecord{}, convErr
	}
	if rec.VWAP, convErr = parseNullDecimal(vwapStr); convErr != nil {
		return DailyRecord{}, convErr
	}
	if transactions.Valid {
		v := transactions.Int64
		rec.Transactions = &v
	}
	rec.Greeks.Delta = nullFloatPtr(gDelta)
	rec.Greeks.Gamma = nullFloatPtr(gGamma)
	rec.Greeks.Theta = nullFloatPtr(gTheta)
	rec.Greeks.Vega = nullFloatPtr(gVega)
	rec.ImpliedVol = nullFloatPtr(iv)

	return rec, nil
}

func parseNullDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, fmt.Errorf("parse decimal column: %w", err)
	}
	return &d, nil
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// deltaFrom computes a snapshot's volume delta given the prior cumulative
// volume for the same contract and date, or nil when this is the first
// capture of the day.
func deltaFrom(current int64, prior *int64) int64 {
	if prior == nil {
		return current
	}
	return current - *prior
}

func sortByCapture(batch []IntradaySnapshot) {
	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].CapturedAt.Equal(batch[j].CapturedAt) {
			return batch[i].Ticker < batch[j].Ticker
		}
		return batch[i].CapturedAt.Before(batch[j].CapturedAt)
	})
}

var _ SnapshotWriter = (*Store)(nil)
var _ Consolidator = (*Store)(nil)
var _ ComparisonSource = (*Store)(nil)
var _ AlertStore = (*Store)(nil)
