package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
)

func scorePanel(rows []map[string]float64) *contracts.Panel {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	p := contracts.NewPanel(len(rows))
	for i, row := range rows {
		p.Append(start.AddDate(0, 0, i), row)
	}
	return p
}

func emaSmoother(halflife, maxGap int) *Smoother {
	return NewSmoother(strategyconfig.Smoothing{
		Kernel:     strategyconfig.KernelEMA,
		Halflife:   halflife,
		Window:     halflife,
		MaxGapDays: maxGap,
	})
}

func TestEMAFirstObservationPassesThrough(t *testing.T) {
	// Halflife 1 means decay 0.5 per step.
	s := emaSmoother(1, 5)

	out, err := s.SmoothPanel(scorePanel([]map[string]float64{
		{"X": 10},
		{"X": 20},
		{"X": 20},
	}))
	require.NoError(t, err)

	assert.InDelta(t, 10.0, out.Values[0]["X"], 1e-9)
	assert.InDelta(t, 15.0, out.Values[1]["X"], 1e-9)
	assert.InDelta(t, 17.5, out.Values[2]["X"], 1e-9)
}

func TestEMAMissingDayCarriesForward(t *testing.T) {
	s := emaSmoother(1, 5)

	out, err := s.SmoothPanel(scorePanel([]map[string]float64{
		{"X": 10},
		{}, // no score
		{"X": 20},
	}))
	require.NoError(t, err)

	// The gap day repeats the last smoothed value without updating state,
	// so day three smooths from 10, not from a double-counted carry.
	assert.InDelta(t, 10.0, out.Values[1]["X"], 1e-9)
	assert.InDelta(t, 15.0, out.Values[2]["X"], 1e-9)
}

func TestEMAGapBeyondToleranceFails(t *testing.T) {
	s := emaSmoother(1, 1)

	_, err := s.SmoothPanel(scorePanel([]map[string]float64{
		{"X": 10},
		{},
		{},
		{"X": 20},
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gap")
}

func TestEMALeadingMissingRowsStayAbsent(t *testing.T) {
	s := emaSmoother(1, 5)

	out, err := s.SmoothPanel(scorePanel([]map[string]float64{
		{},
		{"X": 10},
	}))
	require.NoError(t, err)

	_, present := out.Values[0]["X"]
	assert.False(t, present)
	assert.InDelta(t, 10.0, out.Values[1]["X"], 1e-9)
}

func TestSMARollingWindow(t *testing.T) {
	s := NewSmoother(strategyconfig.Smoothing{
		Kernel:     strategyconfig.KernelSMA,
		Halflife:   2,
		Window:     2,
		MaxGapDays: 5,
	})

	out, err := s.SmoothPanel(scorePanel([]map[string]float64{
		{"X": 10},
		{"X": 20},
		{"X": 30},
	}))
	require.NoError(t, err)

	assert.InDelta(t, 10.0, out.Values[0]["X"], 1e-9)
	assert.InDelta(t, 15.0, out.Values[1]["X"], 1e-9)
	assert.InDelta(t, 25.0, out.Values[2]["X"], 1e-9)
}

func TestUnknownKernelRejected(t *testing.T) {
	s := NewSmoother(strategyconfig.Smoothing{Kernel: "median", Halflife: 5, Window: 5, MaxGapDays: 5})

	_, err := s.SmoothPanel(scorePanel([]map[string]float64{{"X": 1}}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel")
}

func TestSmoothingIsCausal(t *testing.T) {
	s := emaSmoother(3, 5)

	rows := []map[string]float64{
		{"X": 10}, {"X": 12}, {"X": 11}, {"X": 13},
	}
	base, err := s.SmoothPanel(scorePanel(rows))
	require.NoError(t, err)

	// Appending a wildly different future value must not move any
	// earlier output.
	extended, err := s.SmoothPanel(scorePanel(append(rows, map[string]float64{"X": -500})))
	require.NoError(t, err)

	for i := range rows {
		assert.InDelta(t, base.Values[i]["X"], extended.Values[i]["X"], 1e-12)
	}
}

func TestSmoothPanelIndependentColumns(t *testing.T) {
	s := emaSmoother(1, 5)

	out, err := s.SmoothPanel(scorePanel([]map[string]float64{
		{"A": 1, "B": 100},
		{"A": 3, "B": 100},
	}))
	require.NoError(t, err)

	assert.InDelta(t, 2.0, out.Values[1]["A"], 1e-9)
	assert.InDelta(t, 100.0, out.Values[1]["B"], 1e-9)
	assert.Equal(t, []string{"A", "B"}, out.Instruments())
}
