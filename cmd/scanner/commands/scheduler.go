package commands

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/wz-hub/a-stock-scanner/internal/scheduler"
	"github.com/wz-hub/a-stock-scanner/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduled daily scan",
	Long: `Runs the daily pipeline on SCAN_SCHEDULE in MARKET_TIMEZONE.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs and their next run
  run     - run a job now

Example:
  go run ./cmd/scanner scheduler start --with-api
  go run ./cmd/scanner scheduler run daily_scan`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerWithAPI bool
)

// Job retry settings; a failed pipeline usually means the store is unreachable
const (
	jobMaxRetries = 2
	jobRetryDelay = time.Minute
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerStartCmd.Flags().BoolVar(&schedulerWithAPI, "with-api", false, "also serve the query API")
}

// initScheduler registers the jobs over the wired app
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.Options{
		Location:   a.cfg.Location(),
		MaxRetries: jobMaxRetries,
		RetryDelay: jobRetryDelay,
	})

	job := jobs.NewDailyScanJob(a.pipeline, a.cfg.Scan.Schedule, a.cfg.Push.Enabled, a.log.WithModule("daily_scan"))
	if err := sched.AddJob(job); err != nil {
		return nil, err
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()

	serverDone := make(chan error, 1)
	if schedulerWithAPI {
		server := newAPIServer(a)
		go func() { serverDone <- server.Run(ctx) }()
	} else {
		close(serverDone)
	}

	PrintSuccess("Scheduler started")
	fmt.Println("\nRegistered jobs:")
	printJobs(sched, a.cfg.Location())
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	if err := <-serverDone; err != nil {
		a.log.WithError(err).Error("API server stopped")
	}
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	printJobs(sched, a.cfg.Location())
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", args[0])
	result, err := sched.RunJobNow(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOut {
		return PrintJSON(result)
	}
	if result.Success {
		PrintSuccess(fmt.Sprintf("%s completed in %s", result.JobName, result.Duration.Round(time.Millisecond)))
	} else {
		PrintWarning(fmt.Sprintf("%s failed: %s", result.JobName, result.Error))
	}
	return nil
}

// printJobs lists jobs with their schedule and next fire time
func printJobs(sched *scheduler.Scheduler, loc *time.Location) {
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		st := stats[name]
		next := "-"
		if schedule, err := cron.ParseStandard(st.Schedule); err == nil {
			next = schedule.Next(time.Now().In(loc)).Format("2006-01-02 15:04 MST")
		}
		fmt.Printf("  - %-12s %-16s next %s\n", name, st.Schedule, next)
	}
}
