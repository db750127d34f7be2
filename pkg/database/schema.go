package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/wz-hub/a-stock-scanner/pkg/config"
)

// schema is written for postgres; sqlite gets TIMESTAMPTZ rewritten.
// Every statement must be idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS instruments (
		code        TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		market      TEXT NOT NULL DEFAULT '',
		listed_date DATE,
		delisted    BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS price_bars (
		instrument_code TEXT NOT NULL,
		trading_date    DATE NOT NULL,
		open            DOUBLE PRECISION NOT NULL,
		high            DOUBLE PRECISION NOT NULL,
		low             DOUBLE PRECISION NOT NULL,
		close           DOUBLE PRECISION NOT NULL,
		volume          DOUBLE PRECISION NOT NULL,
		amount          DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (instrument_code, trading_date)
	)`,
	`CREATE TABLE IF NOT EXISTS signals (
		instrument_code TEXT NOT NULL,
		scan_date       DATE NOT NULL,
		strategy_name   TEXT NOT NULL,
		payload         TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (instrument_code, scan_date, strategy_name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_scan_date ON signals (scan_date)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_strategy ON signals (strategy_name)`,
	`CREATE TABLE IF NOT EXISTS scan_runs (
		run_id        TEXT PRIMARY KEY,
		scan_date     DATE NOT NULL,
		started_at    TIMESTAMPTZ NOT NULL,
		elapsed_ms    BIGINT NOT NULL,
		total_signals INTEGER NOT NULL,
		summary       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_runs_started_at ON scan_runs (started_at)`,
	`CREATE TABLE IF NOT EXISTS notification_records (
		scan_date DATE NOT NULL,
		channel   TEXT NOT NULL,
		status    TEXT NOT NULL,
		message   TEXT NOT NULL,
		sent_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (scan_date, channel)
	)`,
}

// Migrate creates all tables and indexes if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if db.Driver == config.DriverSQLite {
			stmt = strings.ReplaceAll(stmt, "TIMESTAMPTZ", "TIMESTAMP")
		}
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
