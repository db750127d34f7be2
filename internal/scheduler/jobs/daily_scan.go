package jobs

import (
	"context"
	"fmt"

	"github.com/wz-hub/a-stock-scanner/internal/brain"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

// Pipeline is the part of the orchestrator the job needs
type Pipeline interface {
	Run(ctx context.Context, opts brain.RunOptions) (*brain.DailyReport, error)
}

// DailyScanJob runs the full pipeline after the market closes
// ⭐ SSOT: the scheduled scan is declared only here
type DailyScanJob struct {
	pipeline Pipeline
	schedule string
	notify   bool
	logger   *logger.Logger
}

// NewDailyScanJob creates a new daily scan job
func NewDailyScanJob(p Pipeline, schedule string, notify bool, log *logger.Logger) *DailyScanJob {
	return &DailyScanJob{
		pipeline: p,
		schedule: schedule,
		notify:   notify,
		logger:   log,
	}
}

// Name returns the job name
func (j *DailyScanJob) Name() string {
	return "daily_scan"
}

// Schedule returns the configured SCAN_SCHEDULE
func (j *DailyScanJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline; per-instrument failures do not fail the job
func (j *DailyScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scan")

	report, err := j.pipeline.Run(ctx, brain.RunOptions{Notify: j.notify})
	if err != nil {
		return fmt.Errorf("daily pipeline failed: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  report.Summary.RunID,
		"signals": report.Summary.TotalSignals(),
	}).Info("Scheduled scan finished")

	return nil
}
