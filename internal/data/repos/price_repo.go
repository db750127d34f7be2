package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/database"
)

const batchSize = 500

// PriceRepository implements contracts.PriceRepository
// ⭐ SSOT: price_bars is append-only and written only here
type PriceRepository struct {
	db *database.DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *database.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// LatestTradingDate returns the newest stored bar date for code
func (r *PriceRepository) LatestTradingDate(ctx context.Context, code string) (time.Time, bool, error) {
	query := r.db.Rebind(`
		SELECT trading_date
		FROM price_bars
		WHERE instrument_code = ?
		ORDER BY trading_date DESC
		LIMIT 1
	`)

	var d time.Time
	err := r.db.SQL.QueryRowContext(ctx, query, code).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read latest bar for %s: %w", code, err)
	}
	return scannedDate(d), true, nil
}

// InsertBars merge-inserts bars in one transaction.
// Existing (instrument_code, trading_date) keys are left untouched.
// Returns the number of rows actually inserted.
func (r *PriceRepository) InsertBars(ctx context.Context, bars []contracts.PriceBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(bars); start += batchSize {
			end := start + batchSize
			if end > len(bars) {
				end = len(bars)
			}

			insert := r.db.Builder().
				Insert("price_bars").
				Columns("instrument_code", "trading_date", "open", "high", "low", "close", "volume", "amount")
			for _, b := range bars[start:end] {
				insert = insert.Values(b.InstrumentCode, dateArg(b.TradingDate), b.Open, b.High, b.Low, b.Close, b.Volume, b.Amount)
			}
			insert = insert.Suffix("ON CONFLICT (instrument_code, trading_date) DO NOTHING")

			query, args, err := insert.ToSql()
			if err != nil {
				return fmt.Errorf("failed to build bar insert: %w", err)
			}

			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to insert bars: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to count inserted bars: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Window returns up to n most recent bars on or before end, oldest first
func (r *PriceRepository) Window(ctx context.Context, code string, end time.Time, n int) ([]contracts.PriceBar, error) {
	if n <= 0 {
		return nil, nil
	}

	query, args, err := r.db.Builder().
		Select("instrument_code", "trading_date", "open", "high", "low", "close", "volume", "amount").
		From("price_bars").
		Where(sq.Eq{"instrument_code": code}).
		Where(sq.LtOrEq{"trading_date": dateArg(end)}).
		OrderBy("trading_date DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build window query: %w", err)
	}

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars for %s: %w", code, err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.InstrumentCode, &b.TradingDate, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		b.TradingDate = scannedDate(b.TradingDate)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}

	// newest-first from the query; strategies expect oldest-first
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}
