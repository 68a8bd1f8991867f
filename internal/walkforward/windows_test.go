package walkforward

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/scoring"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

func d(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestWindowsRolling(t *testing.T) {
	windows, err := Windows(d("2023-01-01"), d("2024-01-01"), 6, 3)

	require.NoError(t, err)
	require.Len(t, windows, 3)

	first := windows[0]
	assert.Equal(t, d("2023-01-01"), first.TrainStart)
	assert.Equal(t, d("2023-06-30"), first.TrainEnd)
	assert.Equal(t, d("2023-07-01"), first.PredStart)
	assert.Equal(t, d("2023-09-30"), first.PredEnd)

	second := windows[1]
	assert.Equal(t, d("2023-04-01"), second.TrainStart)
	assert.Equal(t, d("2023-10-01"), second.PredStart)

	// Prediction ranges tile without gaps or overlap.
	for i := 1; i < len(windows); i++ {
		assert.Equal(t, windows[i-1].PredEnd.AddDate(0, 0, 1), windows[i].PredStart)
	}

	// Last fold clamps to the overall end.
	last := windows[len(windows)-1]
	assert.False(t, last.PredEnd.After(d("2024-01-01")))
}

func TestWindowsNoLookAhead(t *testing.T) {
	windows, err := Windows(d("2020-01-01"), d("2025-01-01"), 24, 3)

	require.NoError(t, err)
	for _, w := range windows {
		assert.NoError(t, w.Validate())
		assert.True(t, w.TrainEnd.Before(w.PredStart))
	}
}

func TestWindowsRangeTooShort(t *testing.T) {
	_, err := Windows(d("2024-01-01"), d("2024-06-01"), 24, 3)

	assert.Error(t, err)
}

func TestWindowsRejectsBadInputs(t *testing.T) {
	_, err := Windows(d("2024-01-01"), d("2025-01-01"), 0, 3)
	assert.Error(t, err)

	_, err = Windows(d("2025-01-01"), d("2024-01-01"), 6, 3)
	assert.Error(t, err)
}

// stubOracle replays canned monotonic scores over its prediction range.
type stubOracle struct {
	calls []scoring.Request
}

func (s *stubOracle) Scores(_ context.Context, req scoring.Request) (*contracts.Panel, error) {
	s.calls = append(s.calls, req)
	panel := contracts.NewPanel(0)
	for day := req.PredStart; !day.After(req.PredEnd); day = day.AddDate(0, 0, 1) {
		panel.Append(day, map[string]float64{"AAA": 0.9, "BBB": 0.1})
	}
	return panel, nil
}

func TestRunnerSequentialFolds(t *testing.T) {
	cfg := strategyconfig.Default()
	cfg.Universe.Instruments = []string{"AAA", "BBB"}
	cfg.WalkForward = strategyconfig.WalkForward{TrainWindowMonths: 6, RetrainFrequencyMonths: 3}
	cfg.Smoothing = strategyconfig.Smoothing{Kernel: strategyconfig.KernelEMA, Halflife: 1, MaxGapDays: 5}

	// AAA always outperforms, matching the stub's score order.
	prices := contracts.NewPanel(0)
	closeA, closeB := 100.0, 100.0
	for day := d("2023-07-01"); !day.After(d("2024-01-02")); day = day.AddDate(0, 0, 1) {
		prices.Append(day, map[string]float64{"AAA": closeA, "BBB": closeB})
		closeA *= 1.01
		closeB *= 0.999
	}

	oracle := &stubOracle{}
	runner := NewRunner(cfg, oracle, logger.Nop())

	summary, err := runner.Run(context.Background(), prices, d("2023-01-01"), d("2024-01-01"))

	require.NoError(t, err)
	require.Len(t, summary.Folds, 3)
	assert.Len(t, oracle.calls, 3)
	// Scores agree with returns on every sampled day.
	assert.InDelta(t, 1.0, summary.MeanIC, 1e-9)
	for _, fold := range summary.Folds {
		assert.Greater(t, fold.Samples, 0)
	}
	// Concatenated panel spans all prediction ranges in order.
	assert.NoError(t, summary.OOSPanel.Validate())
	assert.Equal(t, summary.Folds[0].Window.PredStart, summary.OOSPanel.Dates[0])
}
