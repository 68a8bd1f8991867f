package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnualizedReturn(t *testing.T) {
	// 21% over 252 trading days annualizes to itself.
	assert.InDelta(t, 0.21, AnnualizedReturn(0.21, 252), 1e-12)
	assert.Zero(t, AnnualizedReturn(0.5, 0))
}

func TestSharpeZeroVariance(t *testing.T) {
	assert.Zero(t, Sharpe([]float64{0.01, 0.01, 0.01}))
}

func TestSharpePositiveDrift(t *testing.T) {
	returns := []float64{0.01, -0.005, 0.012, 0.003, -0.002}

	got := Sharpe(returns)

	assert.Greater(t, got, 0.0)
	assert.InDelta(t, mean(returns)/stddev(returns)*math.Sqrt(252), got, 1e-12)
}

func TestSortinoIgnoresUpsideVolatility(t *testing.T) {
	// Same mean, same downside; the spikier upside should not hurt.
	calm := []float64{0.01, -0.01, 0.01, -0.01}
	spiky := []float64{0.05, -0.01, 0.05, -0.01}

	assert.Greater(t, Sortino(spiky), Sortino(calm))
}

func TestMaxDrawdown(t *testing.T) {
	equity := []float64{100, 120, 90, 110, 80}

	// Peak 120, trough 80.
	assert.InDelta(t, 1.0/3.0, MaxDrawdown(equity), 1e-12)
}

func TestMaxDrawdownMonotonicCurveIsZero(t *testing.T) {
	assert.Zero(t, MaxDrawdown([]float64{100, 101, 105}))
}

func TestWinRate(t *testing.T) {
	assert.InDelta(t, 0.5, WinRate([]float64{0.01, -0.01, 0.02, 0.0}), 1e-12)
	assert.Zero(t, WinRate(nil))
}

func TestSpearmanPerfectMonotonic(t *testing.T) {
	scores := map[string]float64{"A": 3, "B": 2, "C": 1}
	forward := map[string]float64{"A": 0.03, "B": 0.01, "C": -0.02}

	ic, ok := SpearmanIC(scores, forward)

	require.True(t, ok)
	assert.InDelta(t, 1.0, ic, 1e-12)
}

func TestSpearmanPerfectInverse(t *testing.T) {
	scores := map[string]float64{"A": 3, "B": 2, "C": 1}
	forward := map[string]float64{"A": -0.02, "B": 0.01, "C": 0.03}

	ic, ok := SpearmanIC(scores, forward)

	require.True(t, ok)
	assert.InDelta(t, -1.0, ic, 1e-12)
}

func TestSpearmanTiesAverageRanks(t *testing.T) {
	scores := map[string]float64{"A": 1, "B": 1, "C": 2, "D": 3}
	forward := map[string]float64{"A": 0.01, "B": 0.01, "C": 0.02, "D": 0.03}

	ic, ok := SpearmanIC(scores, forward)

	require.True(t, ok)
	assert.InDelta(t, 1.0, ic, 1e-12)
}

func TestSpearmanRequiresTwoCommonInstruments(t *testing.T) {
	_, ok := SpearmanIC(map[string]float64{"A": 1}, map[string]float64{"A": 0.01})
	assert.False(t, ok)

	_, ok = SpearmanIC(map[string]float64{"A": 1, "B": 2}, map[string]float64{"C": 0.01})
	assert.False(t, ok)
}

func TestSpearmanConstantSideIsUndefined(t *testing.T) {
	scores := map[string]float64{"A": 1, "B": 1}
	forward := map[string]float64{"A": 0.01, "B": 0.02}

	_, ok := SpearmanIC(scores, forward)

	assert.False(t, ok)
}
