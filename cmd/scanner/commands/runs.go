package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past scan runs",
}

var (
	runsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE:  listRuns,
	}

	runsShowCmd = &cobra.Command{
		Use:   "show [run_id]",
		Short: "Show one run summary",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	runsLimit int
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum rows")
}

func listRuns(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.runs.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}

	if jsonOut {
		return PrintJSON(records)
	}

	widths := []int{36, 10, 20, 10, 8}
	PrintTableHeader([]string{"RUN ID", "SCAN DATE", "STARTED", "ELAPSED", "SIGNALS"}, widths)
	for _, r := range records {
		PrintTableRow([]string{
			r.RunID,
			contracts.FormatDate(r.ScanDate),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Elapsed.Round(time.Millisecond).String(),
			strconv.Itoa(r.TotalSignals),
		}, widths)
	}
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	record, err := a.runs.GetRun(ctx, args[0])
	if errors.Is(err, contracts.ErrNotFound) {
		return fmt.Errorf("run %s not found", args[0])
	}
	if err != nil {
		return err
	}

	if jsonOut || record.Summary == nil {
		return PrintJSON(record)
	}
	PrintHeader("Run "+record.RunID, record.ScanDate)
	PrintSummary(record.Summary)
	return nil
}
