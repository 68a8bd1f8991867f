package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

func newTestFilter(maWindow int, band float64) *Filter {
	return NewFilter(strategyconfig.Regime{
		MAWindow:       maWindow,
		HysteresisBand: band,
		ExposureBull:   1.0,
		ExposureBear:   0.3,
	}, logger.Nop())
}

func day(n int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestObserveWarmup(t *testing.T) {
	f := newTestFilter(3, 0.01)

	_, err := f.Observe(day(0), 100)
	assert.Error(t, err)
	assert.False(t, f.Ready())

	_, err = f.Observe(day(1), 100)
	assert.Error(t, err)

	state, err := f.Observe(day(2), 100)
	require.NoError(t, err)
	assert.True(t, f.Ready())
	assert.Equal(t, contracts.RegimeBull, state.Label)
}

func TestInitialStateUsesBareComparison(t *testing.T) {
	f := newTestFilter(2, 0.05)

	f.Observe(day(0), 100)
	// MA = 99.5, close 99: ratio < 1 but within the band. The first
	// classification ignores the band and starts bear.
	state, err := f.Observe(day(1), 99)

	require.NoError(t, err)
	assert.Equal(t, contracts.RegimeBear, state.Label)
	assert.InDelta(t, 0.3, state.Exposure, 1e-12)
}

func TestWithinBandOscillationKeepsState(t *testing.T) {
	f := newTestFilter(2, 0.02)

	f.Observe(day(0), 100)
	state, err := f.Observe(day(1), 102) // bull
	require.NoError(t, err)
	require.Equal(t, contracts.RegimeBull, state.Label)

	// Close dips just below the MA but stays inside the band.
	state, err = f.Observe(day(2), 100)
	require.NoError(t, err)
	assert.Equal(t, contracts.RegimeBull, state.Label)
	assert.Less(t, state.Ratio, 1.0)
}

func TestBullToBearRequiresClearingBand(t *testing.T) {
	f := newTestFilter(2, 0.02)

	f.Observe(day(0), 100)
	f.Observe(day(1), 110) // bull

	// Drop far enough that close < MA*(1-band).
	state, err := f.Observe(day(2), 90)
	require.NoError(t, err)
	assert.Equal(t, contracts.RegimeBear, state.Label)
	assert.Equal(t, day(2), state.Since)
	assert.InDelta(t, 0.3, state.Exposure, 1e-12)
}

func TestBearToBullRequiresClearingBand(t *testing.T) {
	f := newTestFilter(2, 0.02)

	f.Observe(day(0), 100)
	f.Observe(day(1), 90) // bear

	// Recovery that stays inside the band keeps bear.
	state, err := f.Observe(day(2), 93)
	require.NoError(t, err)
	require.Equal(t, contracts.RegimeBear, state.Label)

	state, err = f.Observe(day(3), 120)
	require.NoError(t, err)
	assert.Equal(t, contracts.RegimeBull, state.Label)
	assert.InDelta(t, 1.0, state.Exposure, 1e-12)
}

func TestObserveRejectsNonPositiveClose(t *testing.T) {
	f := newTestFilter(2, 0.01)

	_, err := f.Observe(day(0), 0)

	assert.Error(t, err)
}

func TestStateBeforeFirstClassification(t *testing.T) {
	f := newTestFilter(3, 0.01)

	_, err := f.State()

	assert.Error(t, err)
}
