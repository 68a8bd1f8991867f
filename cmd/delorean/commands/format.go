package commands

import (
	"fmt"
	"sort"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/walkforward"
)

// Shared output formatting so every command prints the same way.

func printSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

func printDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

func printHeader(title string) {
	fmt.Println()
	printDoubleSeparator()
	fmt.Printf("  %s\n", title)
	printSeparator()
}

func printSummary(s contracts.PerformanceSummary) {
	printHeader("Backtest Results")
	fmt.Printf("  Period              : %s ~ %s (%d trading days)\n",
		s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.TradingDays)
	fmt.Printf("  Total Return        : %+.2f%%\n", s.TotalReturn*100)
	fmt.Printf("  Annualized Return   : %+.2f%%\n", s.AnnualizedReturn*100)
	fmt.Printf("  Annualized Vol      : %.2f%%\n", s.Volatility*100)
	fmt.Printf("  Sharpe              : %.2f\n", s.Sharpe)
	fmt.Printf("  Sortino             : %.2f\n", s.Sortino)
	fmt.Printf("  Max Drawdown        : -%.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("  Win Rate            : %.1f%%\n", s.WinRate*100)
	fmt.Printf("  Annualized Turnover : %.2fx\n", s.AnnualizedTurnover)
	fmt.Printf("  Rank IC             : %.4f\n", s.RankIC)
	printDoubleSeparator()
}

func printWeights(w contracts.WeightVector) {
	if len(w) == 0 {
		fmt.Println("  (all cash)")
		return
	}
	symbols := make([]string, 0, len(w))
	for symbol := range w {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		fmt.Printf("  %-12s %6.2f%%\n", symbol, w[symbol]*100)
	}
}

func printFolds(summary *walkforward.Summary) {
	printHeader("Walk-Forward Validation")
	for i, fold := range summary.Folds {
		fmt.Printf("  Fold %2d  %s  IC %+.4f  (%d samples)\n",
			i+1, fold.Window, fold.RankIC, fold.Samples)
	}
	printSeparator()
	fmt.Printf("  Mean IC : %+.4f over %d folds\n", summary.MeanIC, len(summary.Folds))
	printDoubleSeparator()
}

func printRecommendation(rec *contracts.Recommendation) {
	printHeader(fmt.Sprintf("Recommendation %s", rec.Date))
	fmt.Printf("  Regime     : %s (ratio %.4f)\n", rec.Regime.Label, rec.RegimeRatio)
	fmt.Printf("  Validation : IC %+.4f [%s]  Sharpe %.2f [%s]\n",
		rec.Validation.RankIC, rec.Validation.ICStatus,
		rec.Validation.Sharpe, rec.Validation.SharpeStatus)
	fmt.Printf("  Est. Vol   : %.2f%%\n", rec.EstimatedAnnVol*100)
	printSeparator()
	for _, e := range rec.Top {
		marker := " "
		if e.IsBuffer {
			marker = "b"
		}
		fmt.Printf("  %2d %s %-12s %-20s score %+.4f  weight %5.2f%%\n",
			e.Rank, marker, e.Symbol, e.Name, e.Score, e.TargetWeight*100)
	}
	printDoubleSeparator()
}
