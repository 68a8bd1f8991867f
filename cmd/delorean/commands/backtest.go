package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/delorean-quant/delorean/internal/backtest"
	"github.com/delorean-quant/delorean/internal/scoring"
	"github.com/delorean-quant/delorean/internal/store"
	"github.com/delorean-quant/delorean/pkg/database"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a historical simulation",
	Long: `Simulates the full rotation pipeline over a historical period:
scores from the model service, smoothed and ranked with hysteresis,
sized under the regime filter, then executed with turnover controls.

Example:
  delorean backtest --from 2023-01-01 --to 2024-12-31
  delorean backtest --from 2023-01-01 --data-dir testdata/prices --save`,
	RunE: runBacktest,
}

var (
	backtestFrom string
	backtestTo   string
	backtestSave bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default today)")
	backtestCmd.Flags().BoolVar(&backtestSave, "save", false, "persist the result to Postgres")

	backtestCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	d, err := setup()
	if err != nil {
		return err
	}

	from, to, err := parsePeriod(backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	provider := d.provider()

	fmt.Printf("📅 Period: %s ~ %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))

	prices, err := provider.ClosePanel(ctx, d.strategy.Universe.Instruments, from, to)
	if err != nil {
		return fmt.Errorf("loading prices: %w", err)
	}
	bench, err := provider.Benchmark(ctx, d.strategy.Meta.Benchmark, from, to)
	if err != nil {
		return fmt.Errorf("loading benchmark: %w", err)
	}

	oracle := scoring.NewHTTPOracle(d.cfg.Oracle, d.log)
	scores, err := oracle.Scores(ctx, scoring.Request{
		Instruments: d.strategy.Universe.Instruments,
		TrainStart:  from.AddDate(0, -d.strategy.WalkForward.TrainWindowMonths, 0),
		TrainEnd:    from.AddDate(0, 0, -1),
		PredStart:   from,
		PredEnd:     to,
	})
	if err != nil {
		return fmt.Errorf("fetching scores: %w", err)
	}

	engine := backtest.NewEngine(d.strategy, d.log)
	report, err := engine.Run(ctx, backtest.Inputs{
		Scores:    scores,
		Prices:    prices,
		Benchmark: bench,
	})
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	printSummary(report.Summary)
	fmt.Println("\n  Final Weights")
	printWeights(report.FinalWeights)

	if backtestSave {
		db, err := database.New(d.cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()

		id, err := store.NewResultRepository(db.Pool).Save(ctx, &store.BacktestRecord{
			StrategyID: d.strategy.Meta.StrategyID,
			ConfigHash: d.hash,
			RunAt:      time.Now().UTC(),
			Summary:    report.Summary,
			Equity:     report.Equity,
		})
		if err != nil {
			return fmt.Errorf("saving result: %w", err)
		}
		fmt.Printf("\n✅ Result saved (id %d)\n", id)
	}

	return nil
}

func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", fromStr, err)
	}
	to := time.Now().UTC().Truncate(24 * time.Hour)
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", toStr, err)
		}
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is not before end date %s", fromStr, to.Format("2006-01-02"))
	}
	return from, to, nil
}
