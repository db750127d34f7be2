package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan stored history without syncing",
	Long: `Evaluates the enabled strategies over stored history for one date.
Re-scanning a date replaces its signals.

Example:
  go run ./cmd/scanner scan
  go run ./cmd/scanner scan --date 2024-03-15`,
	RunE: runScan,
}

var scanDateFlag string

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanDateFlag, "date", "", "scan date YYYY-MM-DD (default: latest completed session)")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	scanDate := contracts.LatestSessionDate(time.Now(), a.cfg.Location(), a.cfg.Scan.SessionClose)
	if scanDateFlag != "" {
		scanDate, err = contracts.ParseDate(scanDateFlag)
		if err != nil {
			return &contracts.ConfigurationError{Field: "--date", Reason: err.Error()}
		}
	}

	summary, err := a.scanner.RunScan(ctx, scanDate)
	if err != nil {
		return err
	}
	summary.Normalize()

	if err := a.runs.SaveRun(ctx, summary); err != nil {
		a.log.WithError(err).Error("Failed to save run summary")
	}
	if a.metrics != nil {
		a.metrics.ObserveScan(summary)
		if err := a.metrics.Push(ctx, a.cfg.Metrics.PushgatewayURL); err != nil {
			a.log.WithError(err).Warn("Failed to push metrics")
		}
	}

	if jsonOut {
		return PrintJSON(summary)
	}
	PrintHeader("Scan", summary.ScanDate)
	PrintSummary(summary)
	return nil
}
