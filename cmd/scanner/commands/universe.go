package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Instrument registry",
}

var (
	universeRefreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the instrument registry from the provider",
		RunE:  refreshUniverse,
	}

	universeListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered instruments",
		RunE:  listUniverse,
	}

	universeForce           bool
	universeIncludeDelisted bool
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeRefreshCmd)
	universeCmd.AddCommand(universeListCmd)

	universeRefreshCmd.Flags().BoolVar(&universeForce, "force", false, "refresh even if the registry is fresh")
	universeListCmd.Flags().BoolVar(&universeIncludeDelisted, "all", false, "include delisted instruments")
}

func refreshUniverse(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.registry.Refresh(ctx, universeForce)
	if err != nil {
		return fmt.Errorf("refresh registry: %w", err)
	}

	if jsonOut {
		return PrintJSON(res)
	}
	if res.Skipped {
		PrintInfo("registry is fresh, use --force to refresh anyway")
		return nil
	}
	PrintSuccess(fmt.Sprintf("registry refreshed: %d upserted, %d active, %d delisted", res.Upserted, res.Active, len(res.Delisted)))
	for _, code := range res.Delisted {
		fmt.Printf("   • delisted %s\n", code)
	}
	return nil
}

func listUniverse(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.registry.Active(ctx, universeIncludeDelisted)
	if err != nil {
		return err
	}

	if jsonOut {
		return PrintJSON(list)
	}

	widths := []int{8, 12, 6, 10, 8}
	PrintTableHeader([]string{"CODE", "NAME", "MARKET", "LISTED", "DELISTED"}, widths)
	for _, inst := range list {
		listed := "-"
		if inst.ListedDate != nil {
			listed = contracts.FormatDate(*inst.ListedDate)
		}
		PrintTableRow([]string{inst.Code, inst.Name, string(inst.Market), listed, strconv.FormatBool(inst.Delisted)}, widths)
	}
	fmt.Printf("\n%d instruments\n", len(list))
	return nil
}
