package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moner050/ddal-kkak/backend/internal/retention"
	"github.com/moner050/ddal-kkak/backend/internal/scheduler"
	"github.com/moner050/ddal-kkak/backend/internal/scheduler/jobs"
	"github.com/moner050/ddal-kkak/backend/internal/screening"
	"github.com/moner050/ddal-kkak/backend/pkg/config"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록과 다음 실행 시각
  run     - 특정 작업 즉시 실행 (동기)

Example:
  go run ./cmd/screener scheduler start
  go run ./cmd/screener scheduler list
  go run ./cmd/screener scheduler run retention_prune`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- retention_prune: RETENTION_SCHEDULE (기본 매일 06:30, RETENTION_ENABLED=true 일 때)
- stats_warmup: 10분마다 (통계 캐시 갱신)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers the maintenance jobs over b
func newScheduler(cfg *config.Config, b *backend, service *screening.Service, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)

	if cfg.Retention.Enabled {
		pruner := retention.NewPruner(b.store, cfg.Retention.KeepDays, log)
		if err := sched.AddJob(jobs.NewRetentionJob(pruner, cfg.Retention.Schedule, log)); err != nil {
			return nil, fmt.Errorf("add retention job: %w", err)
		}
	}

	if b.redis.Enabled() {
		if err := sched.AddJob(jobs.NewStatsWarmupJob(service, log)); err != nil {
			return nil, fmt.Errorf("add warmup job: %w", err)
		}
	}

	return sched, nil
}

// withScheduler opens the backend and builds the scheduler for one command
func withScheduler(ctx context.Context, fn func(*scheduler.Scheduler) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	sched, err := newScheduler(cfg, b, screening.NewService(b.store), log)
	if err != nil {
		return err
	}
	return fn(sched)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ddal-kkak Scheduler ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withScheduler(ctx, func(sched *scheduler.Scheduler) error {
		sched.Start()

		fmt.Println("\n✅ Scheduler started successfully")
		printJobs(sched)
		fmt.Println("\nPress Ctrl+C to stop")

		<-ctx.Done()

		fmt.Println("\nShutting down scheduler...")
		sched.Stop()
		fmt.Println("Scheduler stopped")
		return nil
	})
}

func listJobs(cmd *cobra.Command, args []string) error {
	return withScheduler(cmd.Context(), func(sched *scheduler.Scheduler) error {
		// entries get their next time only once cron is running
		sched.Start()
		defer sched.Stop()

		printJobs(sched)
		return nil
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	return withScheduler(cmd.Context(), func(sched *scheduler.Scheduler) error {
		result, err := sched.RunNow(cmd.Context(), jobName)
		if result.Attempts > 0 {
			fmt.Printf("   Attempts: %d\n", result.Attempts)
			fmt.Printf("   Duration: %v\n", result.Duration)
		}
		if err != nil {
			return fmt.Errorf("run job: %w", err)
		}

		fmt.Println("✅ Job completed")
		return nil
	})
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-16s %s", jobName, stats[jobName].Schedule)
		if next := sched.Next(jobName); !next.IsZero() {
			fmt.Printf("  (next: %s)", next.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}
