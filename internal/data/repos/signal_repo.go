package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/database"
)

// SignalRepository implements contracts.SignalRepository (the result store)
// ⭐ SSOT: signal rows are stored and queried only here
type SignalRepository struct {
	db  *database.DB
	now func() time.Time
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db *database.DB) *SignalRepository {
	return &SignalRepository{db: db, now: time.Now}
}

// Upsert stores a signal; an existing key gets the new payload and keeps created_at
func (r *SignalRepository) Upsert(ctx context.Context, signal contracts.Signal) error {
	payload, err := json.Marshal(signal.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	createdAt := signal.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	query, args, err := r.db.Builder().
		Insert("signals").
		Columns("instrument_code", "scan_date", "strategy_name", "payload", "created_at").
		Values(signal.InstrumentCode, dateArg(signal.ScanDate), signal.StrategyName, string(payload), timeArg(createdAt)).
		Suffix("ON CONFLICT (instrument_code, scan_date, strategy_name) DO UPDATE SET payload = excluded.payload").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build signal upsert: %w", err)
	}

	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert signal %s/%s: %w", signal.InstrumentCode, signal.StrategyName, err)
	}
	return nil
}

// Delete removes one signal; a missing key is not an error
func (r *SignalRepository) Delete(ctx context.Context, key contracts.SignalKey) error {
	query, args, err := r.db.Builder().
		Delete("signals").
		Where(sq.Eq{
			"instrument_code": key.InstrumentCode,
			"scan_date":       dateArg(key.ScanDate),
			"strategy_name":   key.StrategyName,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build signal delete: %w", err)
	}

	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete signal: %w", err)
	}
	return nil
}

// Query returns signals matching every supplied filter,
// ordered by scan_date DESC then instrument_code ASC
func (r *SignalRepository) Query(ctx context.Context, filter contracts.SignalFilter) ([]contracts.Signal, error) {
	sel := r.db.Builder().
		Select("instrument_code", "scan_date", "strategy_name", "payload", "created_at").
		From("signals").
		OrderBy("scan_date DESC", "instrument_code ASC", "strategy_name ASC")

	if filter.Date != nil {
		sel = sel.Where(sq.Eq{"scan_date": dateArg(*filter.Date)})
	}
	if filter.From != nil {
		sel = sel.Where(sq.GtOrEq{"scan_date": dateArg(*filter.From)})
	}
	if filter.To != nil {
		sel = sel.Where(sq.LtOrEq{"scan_date": dateArg(*filter.To)})
	}
	if filter.StrategyName != "" {
		sel = sel.Where(sq.Eq{"strategy_name": filter.StrategyName})
	}
	if filter.InstrumentCode != "" {
		sel = sel.Where(sq.Eq{"instrument_code": filter.InstrumentCode})
	}
	if filter.Limit > 0 {
		sel = sel.Limit(uint64(filter.Limit))
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build signal query: %w", err)
	}

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	signals := []contracts.Signal{}
	for rows.Next() {
		var s contracts.Signal
		var payload string
		if err := rows.Scan(&s.InstrumentCode, &s.ScanDate, &s.StrategyName, &payload, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &s.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload for %s: %w", s.InstrumentCode, err)
		}
		s.ScanDate = scannedDate(s.ScanDate)
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}

	return signals, nil
}

// DeleteBefore removes signals older than date (operator cleanup)
func (r *SignalRepository) DeleteBefore(ctx context.Context, date time.Time) (int64, error) {
	query, args, err := r.db.Builder().
		Delete("signals").
		Where(sq.Lt{"scan_date": dateArg(date)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build prune: %w", err)
	}

	res, err := r.db.SQL.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune signals: %w", err)
	}
	return res.RowsAffected()
}
