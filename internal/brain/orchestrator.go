package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/internal/metrics"
	"github.com/wz-hub/a-stock-scanner/internal/notify"
	"github.com/wz-hub/a-stock-scanner/internal/s0_data/collector"
	"github.com/wz-hub/a-stock-scanner/internal/s1_universe"
	"github.com/wz-hub/a-stock-scanner/internal/s2_signals"
	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

// ErrEmptyRegistry means there is nothing to sync or scan
var ErrEmptyRegistry = errors.New("instrument registry is empty")

// Config holds pipeline settings
type Config struct {
	IncludeDelisted bool
	Location        *time.Location
	SessionClose    time.Duration
	PushgatewayURL  string
}

// ConfigFrom maps application config onto pipeline settings
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		IncludeDelisted: cfg.Scan.IncludeDelisted,
		Location:        cfg.Location(),
		SessionClose:    cfg.Scan.SessionClose,
		PushgatewayURL:  cfg.Metrics.PushgatewayURL,
	}
}

// Orchestrator coordinates the daily pipeline
// refresh → sync → scan → persist → metrics → notify
// ⭐ SSOT: the only place the stages are chained
type Orchestrator struct {
	registry *s1_universe.Registry
	sync     *collector.Synchronizer
	scanner  *s2_signals.Scanner
	runs     contracts.RunRepository
	metrics  *metrics.Metrics   // optional
	notifier *notify.Dispatcher // optional
	cfg      Config
	logger   *logger.Logger
}

// NewOrchestrator creates a new orchestrator; metrics and notifier may be nil
func NewOrchestrator(
	registry *s1_universe.Registry,
	sync *collector.Synchronizer,
	scanner *s2_signals.Scanner,
	runs contracts.RunRepository,
	m *metrics.Metrics,
	notifier *notify.Dispatcher,
	cfg Config,
	log *logger.Logger,
) *Orchestrator {
	if cfg.Location == nil {
		cfg.Location = contracts.MarketLocation
	}
	return &Orchestrator{
		registry: registry,
		sync:     sync,
		scanner:  scanner,
		runs:     runs,
		metrics:  m,
		notifier: notifier,
		cfg:      cfg,
		logger:   log.WithModule("brain"),
	}
}

// RunOptions tunes one pipeline run
type RunOptions struct {
	Now          time.Time // zero means time.Now()
	ForceRefresh bool
	SkipSync     bool
	Notify       bool
	ForceNotify  bool // push even if this scan date was already pushed
	OnSync       func(contracts.SyncOutcome)
}

// DailyReport is what one pipeline run did
type DailyReport struct {
	Refresh      *s1_universe.RefreshResult `json:"refresh,omitempty"`
	RefreshError string                     `json:"refresh_error,omitempty"`
	SyncOutcomes []contracts.SyncOutcome    `json:"sync_outcomes"`
	Summary      *contracts.RunSummary      `json:"summary"`
	NotifyError  string                     `json:"notify_error,omitempty"`
}

// Run executes the pipeline. Per-instrument problems end up in the report;
// an error means the run could not produce a summary at all.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*DailyReport, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	scanDate := contracts.LatestSessionDate(now, o.cfg.Location, o.cfg.SessionClose)
	report := &DailyReport{}

	log := o.logger.WithField("scan_date", contracts.FormatDate(scanDate))
	log.Info("Starting daily pipeline")

	// Stage 1: registry
	refresh, err := o.registry.Refresh(ctx, opts.ForceRefresh)
	if err != nil {
		log.WithError(err).Warn("Registry refresh failed, using stored registry")
		report.RefreshError = err.Error()
	}
	report.Refresh = refresh

	codes, err := o.registry.Codes(ctx, o.cfg.IncludeDelisted)
	if err != nil {
		return report, fmt.Errorf("load registry: %w", err)
	}
	if len(codes) == 0 {
		return report, ErrEmptyRegistry
	}

	// Stage 2: history
	if !opts.SkipSync {
		report.SyncOutcomes = o.sync.SyncAllUntil(ctx, codes, scanDate, opts.OnSync)
	}

	// Stage 3: scan
	summary, err := o.scanner.RunScan(ctx, scanDate)
	if err != nil {
		return report, fmt.Errorf("run scan: %w", err)
	}
	for _, out := range report.SyncOutcomes {
		if out.Status == contracts.SyncFailed {
			summary.SyncFailures = append(summary.SyncFailures, contracts.InstrumentIssue{Code: out.Code, Reason: out.Reason})
		}
	}
	summary.Normalize()
	report.Summary = summary

	// Stage 4: persistence, reporting
	if err := o.runs.SaveRun(ctx, summary); err != nil {
		log.WithError(err).Error("Failed to save run summary")
	}

	if o.metrics != nil {
		o.metrics.ObserveSync(report.SyncOutcomes)
		o.metrics.ObserveScan(summary)
		if err := o.metrics.Push(ctx, o.cfg.PushgatewayURL); err != nil {
			log.WithError(err).Warn("Failed to push metrics")
		}
	}

	if opts.Notify && o.notifier != nil {
		if err := o.notify(ctx, summary, opts.ForceNotify); err != nil {
			report.NotifyError = err.Error()
		}
	}

	log.WithFields(map[string]interface{}{
		"run_id":        summary.RunID,
		"signals":       summary.TotalSignals(),
		"sync_failures": len(summary.SyncFailures),
		"skipped":       len(summary.Skipped),
		"failed":        len(summary.Failed),
	}).Info("Daily pipeline completed")

	return report, nil
}

// notify errors are reported, never propagated as a run failure
func (o *Orchestrator) notify(ctx context.Context, summary *contracts.RunSummary, force bool) error {
	if !force {
		sent, err := o.notifier.AlreadySent(ctx, summary.ScanDate)
		if err != nil {
			o.logger.WithError(err).Warn("Failed to check notification history")
		}
		if sent {
			o.logger.Info("Scan date already pushed, skipping notification")
			return nil
		}
	}
	return o.notifier.NotifyRun(ctx, summary)
}
