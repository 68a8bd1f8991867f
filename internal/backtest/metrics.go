package backtest

import (
	"math"
	"sort"
)

const tradingDaysPerYear = 252

// AnnualizedReturn converts a total return over tradingDays into a
// geometric annual rate.
func AnnualizedReturn(totalReturn float64, tradingDays int) float64 {
	if tradingDays <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, tradingDaysPerYear/float64(tradingDays)) - 1
}

// AnnualizedVolatility is the annualized standard deviation of daily
// returns.
func AnnualizedVolatility(returns []float64) float64 {
	return stddev(returns) * math.Sqrt(tradingDaysPerYear)
}

// Sharpe is the annualized mean/vol ratio of daily returns, zero risk
// free rate.
func Sharpe(returns []float64) float64 {
	sd := stddev(returns)
	if sd == 0 {
		return 0
	}
	return mean(returns) / sd * math.Sqrt(tradingDaysPerYear)
}

// Sortino penalizes downside deviation only.
func Sortino(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	downside := 0.0
	for _, r := range returns {
		if r < 0 {
			downside += r * r
		}
	}
	dd := math.Sqrt(downside / float64(len(returns)))
	if dd == 0 {
		return 0
	}
	return mean(returns) / dd * math.Sqrt(tradingDaysPerYear)
}

// MaxDrawdown is the largest peak-to-trough loss of an equity curve,
// returned as a positive fraction.
func MaxDrawdown(equity []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// WinRate is the fraction of strictly positive daily returns.
func WinRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

// SpearmanIC is the rank correlation between one day's scores and the
// instruments' forward returns. Only instruments present in both maps
// count; fewer than two common instruments yields ok=false.
func SpearmanIC(scores, forward map[string]float64) (float64, bool) {
	symbols := make([]string, 0, len(scores))
	for symbol := range scores {
		if _, found := forward[symbol]; found {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) < 2 {
		return 0, false
	}
	sort.Strings(symbols)

	sr := averageRanks(symbols, scores)
	fr := averageRanks(symbols, forward)

	return pearson(sr, fr)
}

// averageRanks assigns 1-based ranks with ties averaged.
func averageRanks(symbols []string, values map[string]float64) []float64 {
	n := len(symbols)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return values[symbols[order[a]]] < values[symbols[order[b]]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[symbols[order[j+1]]] == values[symbols[order[i]]] {
			j++
		}
		avg := float64(i+j+2) / 2 // mean of 1-based positions i+1..j+1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

func pearson(x, y []float64) (float64, bool) {
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	variance := 0.0
	for _, x := range xs {
		d := x - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(xs)-1))
}
