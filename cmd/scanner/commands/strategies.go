package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/api/handlers"
)

// strategiesCmd represents the strategies command
var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "Builtin strategies",
}

var strategiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List builtin strategies and whether they are enabled",
	RunE:  listStrategies,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
	strategiesCmd.AddCommand(strategiesListCmd)
}

func listStrategies(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	enabled, err := loadStrategies(cfg, log)
	if err != nil {
		return err
	}

	if jsonOut {
		return PrintJSON(handlers.StrategyCatalogue(enabled))
	}

	widths := []int{18, 8, 8, 50}
	PrintTableHeader([]string{"NAME", "LOOKBACK", "ENABLED", "DESCRIPTION"}, widths)
	for _, s := range enabled.Catalogue() {
		PrintTableRow([]string{
			s.Name(),
			strconv.Itoa(s.Lookback()),
			strconv.FormatBool(enabled.Enabled(s.Name())),
			s.Description(),
		}, widths)
	}
	return nil
}
