package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/delorean-quant/delorean/internal/live"
	"github.com/delorean-quant/delorean/internal/marketdata/feed"
	"github.com/delorean-quant/delorean/internal/scheduler"
	"github.com/delorean-quant/delorean/internal/scheduler/jobs"
	"github.com/delorean-quant/delorean/internal/scoring"
	"github.com/delorean-quant/delorean/internal/store"
	"github.com/delorean-quant/delorean/pkg/database"
	"github.com/delorean-quant/delorean/pkg/redis"
)

// Cron schedules in UTC. The exchange closes 15:00 CST (07:00 UTC);
// bars sync shortly after close, the signal runs once they settle.
const (
	barSyncSchedule     = "30 7 * * 1-5"
	dailySignalSchedule = "0 9 * * 1-5"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Runs the recurring jobs: daily bar sync after the market close
and the daily signal once fresh bars have settled.

Example:
  delorean scheduler start
  delorean scheduler run daily_signal`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a registered job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func buildScheduler(d *deps) (*scheduler.Scheduler, func(), error) {
	db, err := database.New(d.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	redisClient, err := redis.New(d.cfg)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}

	cleanup := func() {
		redisClient.Close()
		db.Close()
	}

	source := feed.NewEastmoneyFeed(d.cfg.Feed, d.log)
	barRepo := store.NewBarRepository(db.Pool)

	universe := append([]string{}, d.strategy.Universe.Instruments...)
	if !contains(universe, d.strategy.Meta.Benchmark) {
		universe = append(universe, d.strategy.Meta.Benchmark)
	}

	oracle := scoring.NewHTTPOracle(d.cfg.Oracle, d.log)
	pipeline := live.NewPipeline(d.strategy, d.hash, oracle, d.provider(), nil, d.log)
	publisher := live.NewPublisher(
		store.NewRecommendationRepository(db.Pool),
		redis.NewCache(redisClient, "delorean"),
		nil,
		d.cfg.ArtifactsDir,
		d.log,
	)

	sched := scheduler.New(d.log)
	if err := sched.AddJob(jobs.NewBarSync(source, barRepo, universe, barSyncSchedule, d.log)); err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewDailySignal(pipeline, publisher, dailySignalSchedule, d.log)); err != nil {
		cleanup()
		return nil, nil, err
	}

	return sched, cleanup, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	d, err := setup()
	if err != nil {
		return err
	}

	sched, cleanup, err := buildScheduler(d)
	if err != nil {
		return err
	}
	defer cleanup()

	sched.Start()

	fmt.Println("✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.Jobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	d.log.Info("Stopping scheduler")
	sched.Stop()
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	d, err := setup()
	if err != nil {
		return err
	}

	sched, cleanup, err := buildScheduler(d)
	if err != nil {
		return err
	}
	defer cleanup()

	name := args[0]
	fmt.Printf("Running job %q...\n", name)
	if err := sched.RunNow(name); err != nil {
		return err
	}

	history, err := sched.JobHistory(name)
	if err != nil {
		return err
	}
	if results := history.Latest(1); len(results) == 1 && !results[0].Success {
		return fmt.Errorf("job %s failed: %s", name, results[0].Error)
	}

	fmt.Printf("✅ Job %q completed\n", name)
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
