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

// InstrumentRepository implements contracts.InstrumentRepository
// ⭐ SSOT: instrument rows are written only here
type InstrumentRepository struct {
	db  *database.DB
	now func() time.Time
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(db *database.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db, now: time.Now}
}

// Upsert inserts or refreshes instruments and clears their delisted flag
func (r *InstrumentRepository) Upsert(ctx context.Context, instruments []contracts.Instrument) error {
	if len(instruments) == 0 {
		return nil
	}

	now := timeArg(r.now())
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(instruments); start += batchSize {
			end := start + batchSize
			if end > len(instruments) {
				end = len(instruments)
			}

			insert := r.db.Builder().
				Insert("instruments").
				Columns("code", "name", "market", "listed_date", "delisted", "updated_at")
			for _, inst := range instruments[start:end] {
				market := inst.Market
				if market == "" {
					market = contracts.MarketOf(inst.Code)
				}
				insert = insert.Values(inst.Code, inst.Name, string(market), nullDateArg(inst.ListedDate), false, now)
			}
			insert = insert.Suffix(`ON CONFLICT (code) DO UPDATE SET
				name = excluded.name,
				market = excluded.market,
				listed_date = COALESCE(excluded.listed_date, instruments.listed_date),
				delisted = FALSE,
				updated_at = excluded.updated_at`)

			query, args, err := insert.ToSql()
			if err != nil {
				return fmt.Errorf("failed to build instrument upsert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to upsert instruments: %w", err)
			}
		}
		return nil
	})
}

// MarkDelisted flags codes as delisted; rows are never deleted
func (r *InstrumentRepository) MarkDelisted(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	query, args, err := r.db.Builder().
		Update("instruments").
		Set("delisted", true).
		Set("updated_at", timeArg(r.now())).
		Where(sq.Eq{"code": codes}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delist update: %w", err)
	}

	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark delisted: %w", err)
	}
	return nil
}

// List returns instruments ordered by code
func (r *InstrumentRepository) List(ctx context.Context, includeDelisted bool) ([]contracts.Instrument, error) {
	sel := r.db.Builder().
		Select("code", "name", "market", "listed_date", "delisted", "updated_at").
		From("instruments").
		OrderBy("code ASC")
	if !includeDelisted {
		sel = sel.Where(sq.Eq{"delisted": false})
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build instrument query: %w", err)
	}

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	var out []contracts.Instrument
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instruments: %w", err)
	}
	return out, nil
}

// Get returns one instrument or contracts.ErrNotFound
func (r *InstrumentRepository) Get(ctx context.Context, code string) (*contracts.Instrument, error) {
	query, args, err := r.db.Builder().
		Select("code", "name", "market", "listed_date", "delisted", "updated_at").
		From("instruments").
		Where(sq.Eq{"code": code}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build instrument query: %w", err)
	}

	inst, err := scanInstrument(r.db.SQL.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	return inst, err
}

// LastRefreshedAt returns the newest updated_at, zero when the registry is empty
func (r *InstrumentRepository) LastRefreshedAt(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := r.db.SQL.QueryRowContext(ctx,
		`SELECT updated_at FROM instruments ORDER BY updated_at DESC LIMIT 1`).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last refresh: %w", err)
	}
	return ts, nil
}

func scanInstrument(row rowScanner) (*contracts.Instrument, error) {
	var inst contracts.Instrument
	var market string
	var listed sql.NullTime
	if err := row.Scan(&inst.Code, &inst.Name, &market, &listed, &inst.Delisted, &inst.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan instrument: %w", err)
	}
	inst.Market = contracts.Market(market)
	inst.ListedDate = scannedNullDate(listed)
	return &inst, nil
}
