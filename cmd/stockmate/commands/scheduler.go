package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Howie-Waves/StockMate/internal/decision"
	"github.com/Howie-Waves/StockMate/internal/scheduler"
	"github.com/Howie-Waves/StockMate/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `워치리스트 정기 분석 스케줄러.

SCHEDULER_WATCHLIST 의 종목을 SCHEDULER_SPEC (초 포함 cron, 기본 평일 15:30)
마다 분석하고 모든 보고서를 저장합니다.

Subcommands:
  start   - 스케줄러 시작
  run     - 워치리스트 분석 즉시 실행

Example:
  SCHEDULER_WATCHLIST=600519,000001 go run ./cmd/stockmate scheduler start
  go run ./cmd/stockmate scheduler run --tickers 600519,000001`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run",
		Short: "워치리스트 분석 즉시 실행",
		RunE:  runSchedulerOnce,
	}

	schedulerTickers []string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringSliceVar(&schedulerTickers, "tickers", nil, "워치리스트 (기본: SCHEDULER_WATCHLIST)")
}

// initScheduler wires the watchlist job into a scheduler
func initScheduler(a *app) (*scheduler.Scheduler, *jobs.WatchlistJob, error) {
	watchlist := a.cfg.Scheduler.Watchlist
	if len(schedulerTickers) > 0 {
		watchlist = schedulerTickers
	}

	job := jobs.NewWatchlistJob(a.engine, a.store, watchlist, decision.Request{}, a.cfg.Scheduler.Spec, a.log)

	sched := scheduler.New(a.log, scheduler.WithRetry(2, 1*time.Minute))
	if err := sched.AddJob(job); err != nil {
		return nil, nil, err
	}
	return sched, job, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fmt.Println("=== StockMate Scheduler ===")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, _, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.Jobs() {
		next, _ := sched.NextRun(name)
		fmt.Printf("  - %s (next: %s)\n", name, next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()
	return nil
}

func runSchedulerOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sched, job, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	result, err := sched.RunNow(ctx, job.Name())
	if err != nil {
		return err
	}

	sum := job.LastSummary()
	PrintHeader(fmt.Sprintf("%s (%d attempts, %s)", result.JobName, result.Attempts, result.Duration.Round(time.Millisecond)))
	PrintKeyValue("Analyzed", fmt.Sprintf("%d", sum.Analyzed))
	PrintKeyValue("Buy/Sell", fmt.Sprintf("%d / %d", sum.Buy, sum.Sell))
	PrintKeyValue("Wait", fmt.Sprintf("%d (degraded %d)", sum.Wait, sum.Degraded))
	PrintKeyValue("Saved", fmt.Sprintf("%d", sum.Saved))
	if !result.Success {
		return fmt.Errorf("job failed: %s", result.Error)
	}
	return nil
}
