package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

func newTestSelector(topK, buffer, maxSwaps int) *Selector {
	return NewSelector(strategyconfig.Selection{
		TopK:           topK,
		Buffer:         buffer,
		MaxSwapsPerDay: maxSwaps,
	}, logger.Nop())
}

func TestRankDeterministicTieBreak(t *testing.T) {
	scores := map[string]float64{"C": 0.5, "A": 0.5, "B": 0.9}

	ranked := Rank(scores)

	require.Len(t, ranked, 3)
	assert.Equal(t, "B", ranked[0].Symbol)
	assert.Equal(t, 1, ranked[0].Rank)
	// Equal scores order by symbol.
	assert.Equal(t, "A", ranked[1].Symbol)
	assert.Equal(t, "C", ranked[2].Symbol)
}

func TestSelectBootstrapTakesTopK(t *testing.T) {
	sel := newTestSelector(2, 1, 1)
	scores := map[string]float64{"A": 0.9, "B": 0.7, "C": 0.5}

	dec, err := sel.Select(scores, nil)

	require.NoError(t, err)
	assert.Equal(t, contracts.HeldSet{"A", "B"}, dec.Held)
	assert.Equal(t, []string{"A", "B"}, dec.Adds)
	assert.Empty(t, dec.Drops)
}

func TestSelectBufferRetainsSlippedHolding(t *testing.T) {
	// B slipped to rank 3, still within TopK+Buffer=3: retained.
	sel := newTestSelector(2, 1, 1)
	scores := map[string]float64{"A": 0.9, "C": 0.8, "B": 0.7, "D": 0.1}

	dec, err := sel.Select(scores, contracts.HeldSet{"A", "B"})

	require.NoError(t, err)
	assert.Empty(t, dec.Adds)
	assert.Empty(t, dec.Drops)
	assert.ElementsMatch(t, []string{"A", "B"}, dec.Held)
}

func TestSelectSwapsWorstOutsideBuffer(t *testing.T) {
	// Prior holdings {A,B,C,F}; F has no score today so it ranks last,
	// drops, and D (best non-held in TopK) replaces it.
	sel := newTestSelector(4, 0, 1)
	scores := map[string]float64{"A": 0.8, "B": 0.6, "C": 0.4, "D": 0.2, "E": 0.1}

	dec, err := sel.Select(scores, contracts.HeldSet{"A", "B", "C", "F"})

	require.NoError(t, err)
	assert.Equal(t, []string{"F"}, dec.Drops)
	assert.Equal(t, []string{"D"}, dec.Adds)
	assert.Equal(t, contracts.HeldSet{"A", "B", "C", "D"}, dec.Held)
}

func TestSelectSwapCapLimitsChurn(t *testing.T) {
	// Both A and B fell outside the buffer but only one swap is
	// allowed; the worse ranked (B) goes first.
	sel := newTestSelector(2, 0, 1)
	scores := map[string]float64{"C": 0.9, "D": 0.8, "A": 0.3, "B": 0.1}

	dec, err := sel.Select(scores, contracts.HeldSet{"A", "B"})

	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, dec.Drops)
	assert.Equal(t, []string{"C"}, dec.Adds)
	assert.ElementsMatch(t, []string{"A", "C"}, dec.Held)
}

func TestSelectMultipleSwapsUpToCap(t *testing.T) {
	sel := newTestSelector(2, 0, 2)
	scores := map[string]float64{"C": 0.9, "D": 0.8, "A": 0.3, "B": 0.1}

	dec, err := sel.Select(scores, contracts.HeldSet{"A", "B"})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, dec.Drops)
	assert.ElementsMatch(t, []string{"C", "D"}, dec.Adds)
	assert.Equal(t, contracts.HeldSet{"C", "D"}, dec.Held)
}

func TestSelectRefillsBelowCapacity(t *testing.T) {
	// Holding only one of two slots: the best non-held candidate fills
	// the free slot without a paired drop.
	sel := newTestSelector(2, 1, 1)
	scores := map[string]float64{"A": 0.9, "B": 0.7, "C": 0.5}

	dec, err := sel.Select(scores, contracts.HeldSet{"A"})

	require.NoError(t, err)
	assert.Empty(t, dec.Drops)
	assert.Equal(t, []string{"B"}, dec.Adds)
	assert.Equal(t, contracts.HeldSet{"A", "B"}, dec.Held)
}

func TestSelectNeverExceedsTopKPlusBuffer(t *testing.T) {
	sel := newTestSelector(2, 1, 3)
	scores := map[string]float64{"A": 0.9, "B": 0.8, "C": 0.7, "D": 0.6, "E": 0.5}

	dec, err := sel.Select(scores, contracts.HeldSet{"C", "D", "E"})

	require.NoError(t, err)
	assert.LessOrEqual(t, len(dec.Held), 3)
}

func TestSelectNoInputs(t *testing.T) {
	sel := newTestSelector(2, 0, 1)

	_, err := sel.Select(nil, nil)

	assert.Error(t, err)
}
