package contracts

import (
	"context"
	"errors"
	"time"
)

// MarketDataProvider is the upstream source of bars and listings
// ⭐ SSOT: the only way market data enters the system
type MarketDataProvider interface {
	// FetchDailyBars returns bars for code within r, oldest first.
	// Retryable failures are *TransientFetchError.
	FetchDailyBars(ctx context.Context, code string, r DateRange) ([]PriceBar, error)
	// FetchInstrumentList returns every currently listed instrument
	FetchInstrumentList(ctx context.Context) ([]Instrument, error)
}

// InstrumentRepository persists the registry
type InstrumentRepository interface {
	Upsert(ctx context.Context, instruments []Instrument) error
	MarkDelisted(ctx context.Context, codes []string) error
	List(ctx context.Context, includeDelisted bool) ([]Instrument, error)
	Get(ctx context.Context, code string) (*Instrument, error)
	LastRefreshedAt(ctx context.Context) (time.Time, error)
}

// PriceRepository persists price bars.
// Stored bars are never modified; inserts of existing keys are ignored.
type PriceRepository interface {
	LatestTradingDate(ctx context.Context, code string) (time.Time, bool, error)
	InsertBars(ctx context.Context, bars []PriceBar) (int, error)
	// Window returns up to n most recent bars on or before end, oldest first
	Window(ctx context.Context, code string, end time.Time, n int) ([]PriceBar, error)
}

// SignalRepository is the result store
// ⭐ SSOT: signals are written only through Upsert/Delete
type SignalRepository interface {
	Upsert(ctx context.Context, signal Signal) error
	Delete(ctx context.Context, key SignalKey) error
	Query(ctx context.Context, filter SignalFilter) ([]Signal, error)
	DeleteBefore(ctx context.Context, date time.Time) (int64, error)
}

// RunRepository persists scan summaries
type RunRepository interface {
	SaveRun(ctx context.Context, summary *RunSummary) error
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// NotificationRepository persists push history
type NotificationRepository interface {
	Record(ctx context.Context, rec NotificationRecord) error
	Get(ctx context.Context, scanDate time.Time, channel string) (*NotificationRecord, error)
}

// ErrNotFound is returned by single-row getters
var ErrNotFound = errors.New("not found")
