package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delorean-quant/delorean/internal/contracts"
)

func TestLedgerRejectsRecordAfterFinalize(t *testing.T) {
	l := NewLedger(1000)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Record(day, 1000, 0, 0, contracts.WeightVector{}))
	l.Finalize()

	assert.Error(t, l.Record(day.AddDate(0, 0, 1), 1010, 0.01, 0, contracts.WeightVector{}))
	assert.Equal(t, 1, l.Len())
}

func TestLedgerCumReturnFromInitial(t *testing.T) {
	l := NewLedger(1000)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Record(day, 1100, 0.10, 0, contracts.WeightVector{"A": 1}))

	points := l.Equity()
	require.Len(t, points, 1)
	assert.InDelta(t, 0.10, points[0].CumReturn, 1e-9)
}

func TestLedgerTurnoverMatchesWeightHistory(t *testing.T) {
	l := NewLedger(1000)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	books := []contracts.WeightVector{
		{"A": 0.5, "B": 0.5},
		{"A": 0.5, "B": 0.5},
		{"A": 0.7, "C": 0.3},
		{},
	}

	prev := contracts.WeightVector{}
	for i, book := range books {
		turnover := contracts.Turnover(prev, book)
		require.NoError(t, l.Record(day.AddDate(0, 0, i), 1000, 0, turnover, book))
		prev = book
	}
	l.Finalize()

	// The running total must equal a batch recomputation over the
	// recorded weight history.
	recomputed := 0.0
	prev = contracts.WeightVector{}
	for _, book := range l.Weights() {
		recomputed += contracts.Turnover(prev, book)
		prev = book
	}
	assert.InDelta(t, recomputed, l.TotalTurnover(), 1e-9)
	assert.InDelta(t, 1.0+1.0+1.0, l.TotalTurnover(), 1e-9)
}

func TestLedgerRecordClonesWeights(t *testing.T) {
	l := NewLedger(1000)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	book := contracts.WeightVector{"A": 1}
	require.NoError(t, l.Record(day, 1000, 0, 0, book))

	book["A"] = 0 // caller mutates its copy afterwards

	assert.InDelta(t, 1.0, l.FinalWeights()["A"], 1e-9)
}
