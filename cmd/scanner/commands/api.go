package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/api"
	"github.com/wz-hub/a-stock-scanner/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the read-only query API",
	Long: `Starts the REST API over the result store.

Endpoints:
  GET  /health               - store health check
  GET  /metrics              - prometheus metrics
  GET  /api/signals          - signals (?date= &from= &to= &strategy= &code= &limit=)
  GET  /api/runs             - recent runs (?limit=)
  GET  /api/runs/{id}        - one run summary
  GET  /api/strategies       - builtin strategies

Example:
  go run ./cmd/scanner api
  go run ./cmd/scanner api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API port (default API_PORT)")
}

// newAPIServer builds the router over the wired app
func newAPIServer(a *app) *api.Server {
	h := api.Handlers{
		Health:     handlers.NewHealthHandler(a.db),
		Signals:    handlers.NewSignalHandler(a.signals, a.log),
		Runs:       handlers.NewRunHandler(a.runs, a.log),
		Strategies: handlers.NewStrategyHandler(a.strategies),
	}
	if a.metrics != nil {
		h.Metrics = a.metrics.Handler()
	}
	return api.New(a.cfg.API, a.log, api.NewRouter(h, a.log))
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.API.Port = apiPort
	}
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.API.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	return newAPIServer(a).Run(ctx)
}
