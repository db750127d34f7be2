package s2_signals

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

// ScannerConfig holds scan settings
type ScannerConfig struct {
	HistoryDays     int
	Workers         int
	IncludeDelisted bool
}

// ScannerConfigFrom maps application config onto scanner settings
func ScannerConfigFrom(cfg config.ScanConfig) ScannerConfig {
	return ScannerConfig{
		HistoryDays:     cfg.HistoryDays,
		Workers:         cfg.Workers,
		IncludeDelisted: cfg.IncludeDelisted,
	}
}

// Scanner runs every enabled strategy over every active instrument
// ⭐ SSOT: signals are produced only by RunScan
type Scanner struct {
	registry    *Registry
	instruments contracts.InstrumentRepository
	prices      contracts.PriceRepository
	signals     contracts.SignalRepository
	cfg         ScannerConfig
	now         func() time.Time
	logger      *logger.Logger
}

// NewScanner creates a new Scanner
func NewScanner(
	registry *Registry,
	instruments contracts.InstrumentRepository,
	prices contracts.PriceRepository,
	signals contracts.SignalRepository,
	cfg ScannerConfig,
	log *logger.Logger,
) *Scanner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Scanner{
		registry:    registry,
		instruments: instruments,
		prices:      prices,
		signals:     signals,
		cfg:         cfg,
		now:         time.Now,
		logger:      log.WithModule("scanner"),
	}
}

// WindowSize is the number of bars loaded per instrument
func (s *Scanner) WindowSize() int {
	if lb := s.registry.MaxLookback(); lb > s.cfg.HistoryDays {
		return lb
	}
	return s.cfg.HistoryDays
}

// instrumentResult is what one instrument contributes to the summary
type instrumentResult struct {
	scanned bool
	signals []contracts.Signal
	skipped *contracts.InstrumentIssue
	failed  []contracts.InstrumentIssue
}

// RunScan evaluates scanDate for every instrument and reconciles the result store.
// Per-instrument problems are recorded in the summary; the only error is
// failing to list instruments.
func (s *Scanner) RunScan(ctx context.Context, scanDate time.Time) (*contracts.RunSummary, error) {
	started := s.now()
	scanDate = contracts.DateOnly(scanDate)

	instruments, err := s.instruments.List(ctx, s.cfg.IncludeDelisted)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}

	summary := contracts.NewRunSummary(uuid.NewString(), scanDate, s.registry.Names())
	summary.ParamsHash = s.registry.ParamsHash()
	summary.StartedAt = started
	summary.Instruments = len(instruments)

	log := s.logger.WithRun(summary.RunID, scanDate)
	log.WithFields(map[string]interface{}{
		"instruments": len(instruments),
		"strategies":  summary.Strategies,
		"window":      s.WindowSize(),
	}).Info("Starting scan")

	codeCh := make(chan string)
	resultCh := make(chan instrumentResult)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range codeCh {
				resultCh <- s.scanInstrument(ctx, code, scanDate)
			}
		}()
	}

	// dispatched is only read after resultCh is closed
	dispatched := 0
	go func() {
		defer close(codeCh)
		for _, inst := range instruments {
			select {
			case <-ctx.Done():
				return
			case codeCh <- inst.Code:
				dispatched++
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for res := range resultCh {
		if res.skipped != nil {
			summary.Skipped = append(summary.Skipped, *res.skipped)
			continue
		}
		if res.scanned {
			summary.Scanned++
		}
		summary.Failed = append(summary.Failed, res.failed...)
		for _, sig := range res.signals {
			summary.Signals = append(summary.Signals, sig)
			summary.Counts[sig.StrategyName]++
		}
	}

	// never handed to a worker because the run was cancelled
	for _, inst := range instruments[dispatched:] {
		summary.Skipped = append(summary.Skipped, contracts.InstrumentIssue{Code: inst.Code, Reason: contracts.SkipCancelled})
	}

	summary.Elapsed = s.now().Sub(started)
	summary.Normalize()

	log.WithFields(map[string]interface{}{
		"scanned": summary.Scanned,
		"signals": summary.TotalSignals(),
		"skipped": len(summary.Skipped),
		"failed":  len(summary.Failed),
		"elapsed": summary.Elapsed.String(),
	}).Info("Scan completed")

	if err := ctx.Err(); err != nil {
		log.WithError(err).Warn("Scan interrupted, summary is partial")
	}

	return summary, nil
}

func (s *Scanner) scanInstrument(ctx context.Context, code string, scanDate time.Time) instrumentResult {
	log := s.logger.WithField("instrument_code", code)

	history, err := s.prices.Window(ctx, code, scanDate, s.WindowSize())
	if err != nil {
		log.WithError(err).Error("Failed to load history")
		return instrumentResult{failed: []contracts.InstrumentIssue{{Code: code, Reason: err.Error()}}}
	}
	if len(history) == 0 {
		return instrumentResult{skipped: &contracts.InstrumentIssue{Code: code, Reason: contracts.SkipNoHistory}}
	}
	if !contracts.DateOnly(history[len(history)-1].TradingDate).Equal(scanDate) {
		return instrumentResult{skipped: &contracts.InstrumentIssue{Code: code, Reason: contracts.SkipStale}}
	}

	current, _ := contracts.QuoteFromBars(history)

	res := instrumentResult{scanned: true}
	for _, strategy := range s.registry.Strategies() {
		key := contracts.SignalKey{InstrumentCode: code, ScanDate: scanDate, StrategyName: strategy.Name()}
		stratLog := log.WithField("strategy", strategy.Name())

		payload, err := evaluate(strategy, code, history, current)
		if err != nil {
			stratLog.WithError(err).Warn("Strategy evaluation failed")
			res.failed = append(res.failed, contracts.InstrumentIssue{Code: code, Strategy: strategy.Name(), Reason: err.Error()})
			continue
		}

		if payload.IsNone() {
			// a re-run must not keep a signal that no longer fires
			if err := s.signals.Delete(ctx, key); err != nil {
				stratLog.WithError(err).Error("Failed to clear stale signal")
				res.failed = append(res.failed, contracts.InstrumentIssue{Code: code, Strategy: strategy.Name(), Reason: err.Error()})
			}
			continue
		}

		sig := contracts.Signal{
			InstrumentCode: code,
			ScanDate:       scanDate,
			StrategyName:   strategy.Name(),
			Payload:        payload.Unwrap(),
			CreatedAt:      s.now(),
		}
		if err := s.signals.Upsert(ctx, sig); err != nil {
			stratLog.WithError(err).Error("Failed to store signal")
			res.failed = append(res.failed, contracts.InstrumentIssue{Code: code, Strategy: strategy.Name(), Reason: err.Error()})
			continue
		}
		res.signals = append(res.signals, sig)
	}
	return res
}

// evaluate runs one strategy on a private copy of history.
// Errors and panics come back as *contracts.StrategyEvaluationError.
func evaluate(strategy Strategy, code string, history []contracts.PriceBar, current contracts.Quote) (payload optional.Option[contracts.SignalPayload], err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = optional.None[contracts.SignalPayload]()
			err = &contracts.StrategyEvaluationError{
				Strategy: strategy.Name(),
				Code:     code,
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
	}()

	payload, err = strategy.Scan(slices.Clone(history), current)
	if err != nil {
		return optional.None[contracts.SignalPayload](), &contracts.StrategyEvaluationError{Strategy: strategy.Name(), Code: code, Err: err}
	}
	return payload, nil
}
