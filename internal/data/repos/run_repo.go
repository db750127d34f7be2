package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/database"
)

// RunRepository implements contracts.RunRepository
type RunRepository struct {
	db *database.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *database.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun stores a summary; saving the same run id again replaces it
func (r *RunRepository) SaveRun(ctx context.Context, summary *contracts.RunSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	query, args, err := r.db.Builder().
		Insert("scan_runs").
		Columns("run_id", "scan_date", "started_at", "elapsed_ms", "total_signals", "summary").
		Values(summary.RunID, dateArg(summary.ScanDate), timeArg(summary.StartedAt),
			summary.Elapsed.Milliseconds(), summary.TotalSignals(), string(body)).
		Suffix(`ON CONFLICT (run_id) DO UPDATE SET
			elapsed_ms = excluded.elapsed_ms,
			total_signals = excluded.total_signals,
			summary = excluded.summary`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build run insert: %w", err)
	}

	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save run %s: %w", summary.RunID, err)
	}
	return nil
}

// GetRun returns a run with its full summary, or contracts.ErrNotFound
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*contracts.RunRecord, error) {
	query, args, err := r.db.Builder().
		Select("run_id", "scan_date", "started_at", "elapsed_ms", "total_signals", "summary").
		From("scan_runs").
		Where(sq.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run query: %w", err)
	}

	rec, err := scanRun(r.db.SQL.QueryRowContext(ctx, query, args...), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	return rec, err
}

// ListRuns returns the newest runs first, without summaries
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]contracts.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := r.db.Builder().
		Select("run_id", "scan_date", "started_at", "elapsed_ms", "total_signals", "summary").
		From("scan_runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build run list: %w", err)
	}

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []contracts.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

func scanRun(row rowScanner, withSummary bool) (*contracts.RunRecord, error) {
	var rec contracts.RunRecord
	var elapsedMS int64
	var body string
	if err := row.Scan(&rec.RunID, &rec.ScanDate, &rec.StartedAt, &elapsedMS, &rec.TotalSignals, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	rec.ScanDate = scannedDate(rec.ScanDate)
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	if withSummary {
		var summary contracts.RunSummary
		if err := json.Unmarshal([]byte(body), &summary); err != nil {
			return nil, fmt.Errorf("failed to decode summary %s: %w", rec.RunID, err)
		}
		rec.Summary = &summary
	}
	return &rec, nil
}
