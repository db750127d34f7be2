package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/brain"
	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full daily pipeline",
	Long: `Runs the daily pipeline once:

  1. registry refresh (weekly cadence unless --force-refresh)
  2. history sync for every active instrument
  3. scan for the latest completed trading date
  4. run summary, metrics and notification

Per-instrument failures are listed in the summary and do not change the exit code.

Example:
  go run ./cmd/scanner run
  go run ./cmd/scanner run --skip-sync --no-notify`,
	RunE: runPipeline,
}

var (
	runForceRefresh bool
	runSkipSync     bool
	runNoNotify     bool
	runForceNotify  bool
	runProgress     bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runForceRefresh, "force-refresh", false, "refresh the instrument registry even if it is fresh")
	runCmd.Flags().BoolVar(&runSkipSync, "skip-sync", false, "scan stored history without syncing")
	runCmd.Flags().BoolVar(&runNoNotify, "no-notify", false, "do not push the summary")
	runCmd.Flags().BoolVar(&runForceNotify, "force-notify", false, "push even if this scan date was already pushed")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "show sync progress")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := brain.RunOptions{
		ForceRefresh: runForceRefresh,
		SkipSync:     runSkipSync,
		Notify:       a.cfg.Push.Enabled && !runNoNotify,
		ForceNotify:  runForceNotify,
	}

	var bar *progressbar.ProgressBar
	if runProgress && !runSkipSync {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("syncing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		opts.OnSync = func(contracts.SyncOutcome) { _ = bar.Add(1) }
	}

	report, err := a.pipeline.Run(ctx, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if errors.Is(err, brain.ErrEmptyRegistry) {
		// nothing to scan is reported, not treated as a process failure
		PrintWarning(fmt.Sprintf("%v (refresh error: %s)", err, report.RefreshError))
		return nil
	}
	if err != nil {
		return err
	}

	if jsonOut {
		return PrintJSON(report)
	}

	PrintHeader("Daily scan", report.Summary.ScanDate)
	if report.RefreshError != "" {
		PrintWarning("registry refresh failed: " + report.RefreshError)
	} else if report.Refresh != nil && !report.Refresh.Skipped {
		PrintInfo(fmt.Sprintf("registry refreshed: %d active, %d delisted", report.Refresh.Active, len(report.Refresh.Delisted)))
	}
	if len(report.SyncOutcomes) > 0 {
		PrintInfo(syncCounts(report.SyncOutcomes))
	}
	PrintSummary(report.Summary)
	if report.NotifyError != "" {
		PrintWarning("notification failed: " + report.NotifyError)
	}

	return nil
}

// syncCounts formats outcome counts per status
func syncCounts(outcomes []contracts.SyncOutcome) string {
	counts := map[contracts.SyncStatus]int{}
	bars := 0
	for _, o := range outcomes {
		counts[o.Status]++
		bars += o.Bars
	}
	return fmt.Sprintf("sync: %d updated (%d bars), %d up to date, %d failed",
		counts[contracts.SyncUpdated], bars, counts[contracts.SyncNoOp], counts[contracts.SyncFailed])
}
