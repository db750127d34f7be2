package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/internal/s0_data/quality"
	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
	"github.com/wz-hub/a-stock-scanner/pkg/retry"
)

// Config holds synchronizer settings
type Config struct {
	Workers      int           // concurrent fetches, 1 = sequential
	PacingDelay  time.Duration // minimum gap between provider calls
	Timeout      time.Duration // per-attempt fetch timeout
	Retry        retry.Policy
	BackfillDays int // calendar days fetched when nothing is stored yet
	WindowBars   int // bars the scan reads; raises BackfillDays when needed
	Location     *time.Location
	SessionClose time.Duration
}

// ConfigFrom maps application config onto synchronizer settings
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Workers:     cfg.Provider.Workers,
		PacingDelay: cfg.Provider.PacingDelay,
		Timeout:     cfg.Provider.Timeout,
		Retry: retry.Policy{
			MaxAttempts:  cfg.Provider.MaxAttempts,
			InitialDelay: cfg.Provider.InitialBackoff,
			MaxDelay:     cfg.Provider.MaxBackoff,
		},
		BackfillDays: cfg.Provider.BackfillDays,
		Location:     cfg.Location(),
		SessionClose: cfg.Scan.SessionClose,
	}
}

// Synchronizer keeps the local price store caught up with the provider
// ⭐ SSOT: price bars enter the store only through this type
type Synchronizer struct {
	provider contracts.MarketDataProvider
	prices   contracts.PriceRepository
	cfg      Config
	pacer    *rate.Limiter
	now      func() time.Time
	logger   *logger.Logger
}

// NewSynchronizer creates a new Synchronizer
func NewSynchronizer(provider contracts.MarketDataProvider, prices contracts.PriceRepository, cfg Config, log *logger.Logger) *Synchronizer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BackfillDays < 1 {
		cfg.BackfillDays = 120
	}
	if floor := backfillFloor(cfg.WindowBars); cfg.BackfillDays < floor {
		log.WithFields(map[string]interface{}{
			"configured":  cfg.BackfillDays,
			"window_bars": cfg.WindowBars,
			"backfill":    floor,
		}).Warn("SYNC_BACKFILL_DAYS too short for the scan window, extending backfill")
		cfg.BackfillDays = floor
	}
	if cfg.Location == nil {
		cfg.Location = contracts.MarketLocation
	}

	limit := rate.Inf
	if cfg.PacingDelay > 0 {
		limit = rate.Every(cfg.PacingDelay)
	}

	return &Synchronizer{
		provider: provider,
		prices:   prices,
		cfg:      cfg,
		pacer:    rate.NewLimiter(limit, 1),
		now:      time.Now,
		logger:   log.WithModule("collector"),
	}
}

// SessionDate is the newest trading day whose session has closed
func (s *Synchronizer) SessionDate() time.Time {
	return contracts.LatestSessionDate(s.now(), s.cfg.Location, s.cfg.SessionClose)
}

// Sync brings one instrument up to SessionDate
func (s *Synchronizer) Sync(ctx context.Context, code string) contracts.SyncOutcome {
	return s.SyncUntil(ctx, code, s.SessionDate())
}

// SyncUntil fetches and stores the bars missing up to end for one instrument.
// It never returns an error; failures are reported in the outcome.
func (s *Synchronizer) SyncUntil(ctx context.Context, code string, end time.Time) contracts.SyncOutcome {
	log := s.logger.WithField("instrument_code", code)

	last, hasData, err := s.prices.LatestTradingDate(ctx, code)
	if err != nil {
		log.WithError(err).Error("Failed to read last stored date")
		return failed(code, 0, err)
	}

	r := s.missingRange(last, hasData, contracts.DateOnly(end))
	if r.Empty() {
		return contracts.SyncOutcome{Code: code, Status: contracts.SyncNoOp}
	}

	var bars []contracts.PriceBar
	attempts, err := retry.Do(ctx, s.cfg.Retry, func(ctx context.Context, attempt int) error {
		if err := s.pacer.Wait(ctx); err != nil {
			return err
		}

		fetchCtx := ctx
		if s.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
			defer cancel()
		}

		var fetchErr error
		bars, fetchErr = s.provider.FetchDailyBars(fetchCtx, code, r)
		return fetchErr
	},
		retry.If(contracts.IsTransient),
		retry.OnRetry(func(attempt int, delay time.Duration, err error) {
			log.WithError(err).WithFields(map[string]interface{}{
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("Fetch failed, retrying")
		}),
	)
	if err != nil {
		log.WithError(err).WithField("attempts", attempts).Error("Failed to fetch bars")
		return failed(code, attempts, err)
	}

	if err := quality.Validate(code, r, bars); err != nil {
		log.WithError(err).Error("Rejected provider data")
		return failed(code, attempts, err)
	}

	inserted, err := s.prices.InsertBars(ctx, bars)
	if err != nil {
		log.WithError(err).Error("Failed to store bars")
		return failed(code, attempts, err)
	}

	if inserted == 0 {
		return contracts.SyncOutcome{Code: code, Status: contracts.SyncNoOp, Attempts: attempts}
	}

	log.WithFields(map[string]interface{}{
		"range": r.String(),
		"bars":  inserted,
	}).Debug("Synced bars")

	return contracts.SyncOutcome{Code: code, Status: contracts.SyncUpdated, Bars: inserted, Attempts: attempts}
}

// backfillFloor converts a window in trading bars to calendar days:
// five sessions per week plus a margin for exchange holidays
func backfillFloor(bars int) int {
	if bars < 1 {
		return 0
	}
	return bars*7/5 + 20
}

// BackfillDays is the effective first-sync depth in calendar days
func (s *Synchronizer) BackfillDays() int {
	return s.cfg.BackfillDays
}

// missingRange is (last, end], or a backfill window on first sync
func (s *Synchronizer) missingRange(last time.Time, hasData bool, end time.Time) contracts.DateRange {
	if !hasData {
		return contracts.DateRange{From: end.AddDate(0, 0, -s.cfg.BackfillDays), To: end}
	}
	return contracts.DateRange{From: contracts.DateOnly(last).AddDate(0, 0, 1), To: end}
}

// SyncAll brings every code up to SessionDate
func (s *Synchronizer) SyncAll(ctx context.Context, codes []string, onOutcome func(contracts.SyncOutcome)) []contracts.SyncOutcome {
	return s.SyncAllUntil(ctx, codes, s.SessionDate(), onOutcome)
}

// SyncAllUntil syncs codes on a bounded worker pool and returns outcomes in input order.
// onOutcome, if set, is called once per finished instrument.
func (s *Synchronizer) SyncAllUntil(ctx context.Context, codes []string, end time.Time, onOutcome func(contracts.SyncOutcome)) []contracts.SyncOutcome {
	outcomes := make([]contracts.SyncOutcome, len(codes))
	if len(codes) == 0 {
		return outcomes
	}

	s.logger.WithFields(map[string]interface{}{
		"instruments": len(codes),
		"workers":     s.cfg.Workers,
		"until":       contracts.FormatDate(end),
	}).Info("Starting history sync")

	type job struct {
		idx  int
		code string
	}
	jobCh := make(chan job)

	var mu sync.Mutex
	report := func(idx int, outcome contracts.SyncOutcome) {
		outcomes[idx] = outcome
		if onOutcome != nil {
			mu.Lock()
			onOutcome(outcome)
			mu.Unlock()
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				report(j.idx, s.SyncUntil(ctx, j.code, end))
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(codes); next++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobCh <- job{idx: next, code: codes[next]}:
		}
	}
	close(jobCh)
	wg.Wait()

	// never dispatched because the run was cancelled
	for i := next; i < len(codes); i++ {
		report(i, failed(codes[i], 0, ctx.Err()))
	}

	counts := map[contracts.SyncStatus]int{}
	for _, o := range outcomes {
		counts[o.Status]++
	}
	s.logger.WithFields(map[string]interface{}{
		"updated": counts[contracts.SyncUpdated],
		"noop":    counts[contracts.SyncNoOp],
		"failed":  counts[contracts.SyncFailed],
	}).Info("History sync completed")

	return outcomes
}

func failed(code string, attempts int, err error) contracts.SyncOutcome {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	if errors.Is(err, context.Canceled) {
		reason = "cancelled"
	}
	return contracts.SyncOutcome{Code: code, Status: contracts.SyncFailed, Attempts: attempts, Reason: reason}
}
