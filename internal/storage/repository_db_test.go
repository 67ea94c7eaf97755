package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gregor-nelson/spx/internal/config"
)

// Integration tests against a live PostgreSQL instance. They run only when
// SPX_TEST_DATABASE_DSN points at a throwaway database; otherwise they skip.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("SPX_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("SPX_TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, config.DatabaseConfig{DSN: dsn})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	store := NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	for _, table := range []string{"intraday_snapshots", "daily_history", "alerts"} {
		if _, err := pool.Exec(ctx, "TRUNCATE "+table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return store
}

func testSnapshot(ticker string, day, at time.Time, volume int64) IntradaySnapshot {
	return IntradaySnapshot{
		Ticker:           ticker,
		CaptureDate:      day,
		CapturedAt:       at,
		Expiration:       day.AddDate(0, 0, 30),
		Strike:           decimal.NewFromInt(6400),
		ContractKind:     "put",
		UnderlyingPrice:  decimal.NewFromInt(6800),
		Moneyness:        0.94,
		DTE:              30,
		VolumeCumulative: volume,
		MarketStatus:     "open",
	}
}

func TestUpsertSnapshotsReplacesOnResubmit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	day := time.Date(2025, time.December, 3, 0, 0, 0, 0, time.UTC)
	t1 := day.Add(10 * time.Hour)
	t2 := day.Add(12 * time.Hour)

	if _, err := store.UpsertSnapshots(ctx, []IntradaySnapshot{
		testSnapshot("O:SPX251219P06400000", day, t1, 100),
		testSnapshot("O:SPX251219P06400000", day, t2, 300),
	}); err != nil {
		t.Fatalf("initial batch: %v", err)
	}

	// Resubmitting the same (ticker, date, timestamp) with corrected values
	// must replace the row, not duplicate it, and the delta must still be
	// computed against the strictly earlier capture.
	if _, err := store.UpsertSnapshots(ctx, []IntradaySnapshot{
		testSnapshot("O:SPX251219P06400000", day, t2, 350),
	}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	var count int
	err := store.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM intraday_snapshots WHERE ticker = $1 AND capture_date = $2 AND captured_at = $3`,
		"O:SPX251219P06400000", day, t2,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows for resubmitted capture = %d, want 1", count)
	}

	var volume, delta int64
	err = store.pool.QueryRow(ctx,
		`SELECT volume_cumulative, volume_delta FROM intraday_snapshots WHERE ticker = $1 AND capture_date = $2 AND captured_at = $3`,
		"O:SPX251219P06400000", day, t2,
	).Scan(&volume, &delta)
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	if volume != 350 {
		t.Errorf("volume_cumulative = %d, want 350 (second-call values)", volume)
	}
	if delta != 250 {
		t.Errorf("volume_delta = %d, want 250 (350 against the earlier 100)", delta)
	}
}

func TestConsolidateDayLastValueWins(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	day := time.Date(2025, time.December, 3, 0, 0, 0, 0, time.UTC)
	batch := []IntradaySnapshot{
		testSnapshot("O:SPX251219P06400000", day, day.Add(10*time.Hour), 100),
		testSnapshot("O:SPX251219P06400000", day, day.Add(13*time.Hour), 900),
		testSnapshot("O:SPX251219P06400000", day, day.Add(16*time.Hour), 1500),
	}
	if _, err := store.UpsertSnapshots(ctx, batch); err != nil {
		t.Fatalf("seed snapshots: %v", err)
	}

	rows, err := store.ConsolidateDay(ctx, day)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if rows != 1 {
		t.Fatalf("consolidated rows = %d, want 1", rows)
	}

	volume, found, err := store.DailyVolume(ctx, day, "O:SPX251219P06400000")
	if err != nil {
		t.Fatalf("daily volume: %v", err)
	}
	if !found {
		t.Fatal("daily row missing after consolidation")
	}
	if volume != 1500 {
		t.Errorf("daily volume = %d, want 1500 (latest capture wins)", volume)
	}
}

func TestCleanupKeepsBoundaryRow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	cutoff := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
	older := cutoff.AddDate(0, 0, -1)

	if _, err := store.UpsertSnapshots(ctx, []IntradaySnapshot{
		testSnapshot("O:SPX251219P06400000", older, older.Add(10*time.Hour), 50),
		testSnapshot("O:SPX251219P06400000", cutoff, cutoff.Add(10*time.Hour), 80),
	}); err != nil {
		t.Fatalf("seed snapshots: %v", err)
	}

	removed, err := store.CleanupIntraday(ctx, cutoff)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1 (only strictly older rows)", removed)
	}

	_, found, err := store.LatestIntradayVolume(ctx, "O:SPX251219P06400000", cutoff)
	if err != nil {
		t.Fatalf("latest volume: %v", err)
	}
	if !found {
		t.Error("row at the cutoff date was deleted; boundary rows must be kept")
	}
}
