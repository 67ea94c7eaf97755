package storage

import (
	"context"
	"fmt"
)

// Schema is created on startup rather than via a migration tool; every
// statement is idempotent so repeated boots are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS intraday_snapshots (
        ticker            TEXT NOT NULL,
        capture_date      DATE NOT NULL,
        captured_at       TIMESTAMPTZ NOT NULL,
        expiration        DATE NOT NULL,
        strike            NUMERIC NOT NULL,
        contract_kind     TEXT NOT NULL,
        underlying_price  NUMERIC,
        moneyness         DOUBLE PRECISION,
        dte               INTEGER,
        volume_cumulative BIGINT NOT NULL DEFAULT 0,
        volume_delta      BIGINT NOT NULL DEFAULT 0,
        open_interest     BIGINT,
        close_price       NUMERIC,
        high_price        NUMERIC,
        low_price         NUMERIC,
        vwap              NUMERIC,
        transactions      BIGINT,
        greek_delta       DOUBLE PRECISION,
        greek_gamma       DOUBLE PRECISION,
        greek_theta       DOUBLE PRECISION,
        greek_vega        DOUBLE PRECISION,
        implied_vol       DOUBLE PRECISION,
        market_status     TEXT,
        created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (ticker, capture_date, captured_at)
    );`,

	`CREATE INDEX IF NOT EXISTS idx_intraday_cleanup
        ON intraday_snapshots (capture_date);`,

	`CREATE TABLE IF NOT EXISTS daily_history (
        trade_date        DATE NOT NULL,
        ticker            TEXT NOT NULL,
        expiration        DATE NOT NULL,
        strike            NUMERIC NOT NULL,
        contract_kind     TEXT NOT NULL,
        spot_close        NUMERIC,
        moneyness         DOUBLE PRECISION,
        dte               INTEGER,
        volume            BIGINT NOT NULL DEFAULT 0,
        volume_delta      BIGINT NOT NULL DEFAULT 0,
        open_interest     BIGINT,
        close_price       NUMERIC,
        high_price        NUMERIC,
        low_price         NUMERIC,
        vwap              NUMERIC,
        transactions      BIGINT,
        greek_delta       DOUBLE PRECISION,
        greek_gamma       DOUBLE PRECISION,
        greek_theta       DOUBLE PRECISION,
        greek_vega        DOUBLE PRECISION,
        implied_vol       DOUBLE PRECISION,
        PRIMARY KEY (trade_date, ticker)
    );`,

	`CREATE INDEX IF NOT EXISTS idx_daily_moneyness
        ON daily_history (moneyness, dte, trade_date);`,

	`CREATE INDEX IF NOT EXISTS idx_daily_ticker
        ON daily_history (ticker, trade_date);`,

	`CREATE TABLE IF NOT EXISTS alerts (
        id               BIGSERIAL PRIMARY KEY,
        triggered_at     TIMESTAMPTZ NOT NULL,
        ticker           TEXT NOT NULL,
        expiration       DATE NOT NULL,
        strike           NUMERIC NOT NULL,
        contract_kind    TEXT NOT NULL,
        moneyness        DOUBLE PRECISION,
        dte              INTEGER,
        flags            TEXT[] NOT NULL,
        current_volume   BIGINT NOT NULL,
        reference_volume BIGINT NOT NULL,
        reference_source TEXT NOT NULL,
        notional         NUMERIC NOT NULL,
        acknowledged     BOOLEAN NOT NULL DEFAULT FALSE,
        acknowledged_at  TIMESTAMPTZ,
        notes            TEXT,
        created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,

	`CREATE INDEX IF NOT EXISTS idx_alerts_time
        ON alerts (triggered_at DESC);`,
}

// EnsureSchema creates tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
