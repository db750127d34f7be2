package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

var (
	// Global flags
	verbose bool
	jsonOut bool
)

// Exit codes
const (
	exitOK        = 0
	exitFailure   = 1
	exitConfig    = 2
	exitStoreInit = 3
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "A-share daily signal scanner",
	Long: `A-share daily signal scanner

Keeps a local daily price history in sync with the market data provider,
evaluates the enabled strategies over every listed instrument and stores
the fired signals.

Configuration comes from the environment (or a .env file).

Usage:
  go run ./cmd/scanner [command]

Examples:
  go run ./cmd/scanner run
  go run ./cmd/scanner sync 600519 000001 --progress
  go run ./cmd/scanner signals list --date 2024-03-15
  go run ./cmd/scanner scheduler start`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		PrintError(err.Error())
	}
	return err
}

// ExitCode maps a command error onto the process exit status.
// Per-instrument failures never reach here; they are reported in the run summary.
func ExitCode(err error) int {
	var storeErr *storeInitError
	switch {
	case err == nil:
		return exitOK
	case contracts.IsConfiguration(err):
		return exitConfig
	case errors.As(err, &storeErr):
		return exitStoreInit
	default:
		return exitFailure
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// storeInitError marks a failure to open or migrate the result store
type storeInitError struct {
	err error
}

func (e *storeInitError) Error() string {
	return fmt.Sprintf("store initialisation failed: %v", e.err)
}

func (e *storeInitError) Unwrap() error { return e.err }
