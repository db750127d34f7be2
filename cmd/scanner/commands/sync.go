package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [codes...]",
	Short: "Sync daily history",
	Long: `Fetches the missing daily bars up to the latest completed session.
Without arguments every active instrument in the registry is synced.

Example:
  go run ./cmd/scanner sync --progress
  go run ./cmd/scanner sync 600519 000001`,
	RunE: runSync,
}

var syncProgress bool

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncProgress, "progress", false, "show a progress bar")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	codes := args
	if len(codes) == 0 {
		codes, err = a.registry.Codes(ctx, a.cfg.Scan.IncludeDelisted)
		if err != nil {
			return err
		}
	}
	if len(codes) == 0 {
		PrintWarning("registry is empty, run `universe refresh` first")
		return nil
	}

	end := a.sync.SessionDate()
	var bar *progressbar.ProgressBar
	var onOutcome func(contracts.SyncOutcome)
	if syncProgress {
		bar = progressbar.NewOptions(len(codes),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(fmt.Sprintf("sync → %s", contracts.FormatDate(end))),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		onOutcome = func(contracts.SyncOutcome) { _ = bar.Add(1) }
	}

	outcomes := a.sync.SyncAllUntil(ctx, codes, end, onOutcome)
	if bar != nil {
		_ = bar.Finish()
	}
	if a.metrics != nil {
		a.metrics.ObserveSync(outcomes)
		if err := a.metrics.Push(ctx, a.cfg.Metrics.PushgatewayURL); err != nil {
			a.log.WithError(err).Warn("Failed to push metrics")
		}
	}

	if jsonOut {
		return PrintJSON(outcomes)
	}

	var failures []contracts.SyncOutcome
	for _, o := range outcomes {
		if o.Status == contracts.SyncFailed {
			failures = append(failures, o)
		}
	}

	PrintHeader("History sync", end)
	PrintInfo(syncCounts(outcomes))
	if len(failures) > 0 {
		fmt.Println()
		widths := []int{8, 8, 60}
		PrintTableHeader([]string{"CODE", "ATTEMPTS", "REASON"}, widths)
		for _, o := range failures {
			PrintTableRow([]string{o.Code, strconv.Itoa(o.Attempts), o.Reason}, widths)
		}
		PrintWarning(fmt.Sprintf("%d instruments failed to sync", len(failures)))
	}
	return nil
}
