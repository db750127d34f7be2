package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Query or prune stored signals",
}

var (
	signalsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored signals",
		Long: `Lists stored signals, newest scan date first.

Example:
  go run ./cmd/scanner signals list --date 2024-03-15
  go run ./cmd/scanner signals list --strategy macd_cross --from 2024-03-01`,
		RunE: listSignals,
	}

	signalsPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete signals older than a date",
		RunE:  pruneSignals,
	}

	signalsDate     string
	signalsFrom     string
	signalsTo       string
	signalsStrategy string
	signalsCode     string
	signalsLimit    int
	signalsBefore   string
)

func init() {
	rootCmd.AddCommand(signalsCmd)
	signalsCmd.AddCommand(signalsListCmd)
	signalsCmd.AddCommand(signalsPruneCmd)

	signalsListCmd.Flags().StringVar(&signalsDate, "date", "", "scan date YYYY-MM-DD")
	signalsListCmd.Flags().StringVar(&signalsFrom, "from", "", "first scan date (inclusive)")
	signalsListCmd.Flags().StringVar(&signalsTo, "to", "", "last scan date (inclusive)")
	signalsListCmd.Flags().StringVar(&signalsStrategy, "strategy", "", "strategy name")
	signalsListCmd.Flags().StringVar(&signalsCode, "code", "", "instrument code")
	signalsListCmd.Flags().IntVar(&signalsLimit, "limit", 200, "maximum rows")

	signalsPruneCmd.Flags().StringVar(&signalsBefore, "before", "", "delete signals with scan date before YYYY-MM-DD")
	_ = signalsPruneCmd.MarkFlagRequired("before")
}

// dateFlag parses an optional YYYY-MM-DD flag value
func dateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := contracts.ParseDate(value)
	if err != nil {
		return nil, &contracts.ConfigurationError{Field: "--" + name, Reason: err.Error()}
	}
	return &d, nil
}

func listSignals(cmd *cobra.Command, args []string) error {
	filter := contracts.SignalFilter{
		StrategyName:   signalsStrategy,
		InstrumentCode: signalsCode,
		Limit:          signalsLimit,
	}
	var err error
	if filter.Date, err = dateFlag("date", signalsDate); err != nil {
		return err
	}
	if filter.From, err = dateFlag("from", signalsFrom); err != nil {
		return err
	}
	if filter.To, err = dateFlag("to", signalsTo); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	signals, err := a.signals.Query(ctx, filter)
	if err != nil {
		return err
	}

	if jsonOut {
		return PrintJSON(signals)
	}
	if len(signals) == 0 {
		PrintInfo("no signals")
		return nil
	}
	PrintSignals(signals)
	fmt.Printf("\n%d signals\n", len(signals))
	return nil
}

func pruneSignals(cmd *cobra.Command, args []string) error {
	before, err := dateFlag("before", signalsBefore)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.signals.DeleteBefore(ctx, *before)
	if err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("deleted %d signals before %s", n, contracts.FormatDate(*before)))
	return nil
}
