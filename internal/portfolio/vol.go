package portfolio

import "math"

// tradingDaysPerYear is the annualization base for daily series.
const tradingDaysPerYear = 252

// DailyReturns converts a close series into simple daily returns.
// Non-positive closes yield a zero return for that day.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// AnnualizedVol is the sample standard deviation of the last window
// daily returns, annualized. Returns 0 when fewer than two returns are
// available.
func AnnualizedVol(returns []float64, window int) float64 {
	if window > 0 && len(returns) > window {
		returns = returns[len(returns)-window:]
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}
