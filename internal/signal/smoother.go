package signal

import (
	"fmt"
	"math"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
)

// Smoother turns a raw daily score series into a denoised signal. Both
// kernels are causal: the value at t uses only rows <= t.
type Smoother struct {
	cfg strategyconfig.Smoothing
}

// NewSmoother creates a smoother from validated config.
func NewSmoother(cfg strategyconfig.Smoothing) *Smoother {
	return &Smoother{cfg: cfg}
}

// SmoothPanel applies the configured kernel to every instrument column of
// the raw score panel. The output panel has the same dates; an instrument
// is present in an output row iff a smoothed value exists for it there.
func (s *Smoother) SmoothPanel(raw *contracts.Panel) (*contracts.Panel, error) {
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("raw score panel: %w", err)
	}

	out := contracts.NewPanel(raw.Len())
	for i, d := range raw.Dates {
		out.Append(d, make(map[string]float64, len(raw.Values[i])))
	}

	for _, symbol := range raw.Instruments() {
		values, ok := raw.Series(symbol)

		smoothed, present, err := s.smoothSeries(values, ok)
		if err != nil {
			return nil, fmt.Errorf("instrument %s: %w", symbol, err)
		}

		for i := range smoothed {
			if present[i] {
				out.Values[i][symbol] = smoothed[i]
			}
		}
	}

	return out, nil
}

// smoothSeries runs one instrument through the kernel. Missing raw values
// (ok[i] == false) do not update the recursive state; the last smoothed
// value carries forward. A gap longer than MaxGapDays is an error rather
// than a silently stale signal.
func (s *Smoother) smoothSeries(values []float64, ok []bool) ([]float64, []bool, error) {
	switch s.cfg.Kernel {
	case strategyconfig.KernelEMA:
		return s.ema(values, ok)
	case strategyconfig.KernelSMA:
		return s.sma(values, ok)
	default:
		return nil, nil, fmt.Errorf("unknown smoothing kernel %q", s.cfg.Kernel)
	}
}

// ema applies an exponential moving average with the configured half-life.
// Decay per step is 0.5^(1/halflife). The first observation passes through
// unchanged: no prior history means no smoothing.
func (s *Smoother) ema(values []float64, ok []bool) ([]float64, []bool, error) {
	decay := math.Pow(0.5, 1.0/float64(s.cfg.Halflife))

	out := make([]float64, len(values))
	present := make([]bool, len(values))

	var state float64
	started := false
	gap := 0

	for i := range values {
		if !ok[i] {
			if started {
				gap++
				if gap > s.cfg.MaxGapDays {
					return nil, nil, fmt.Errorf("score gap of %d days exceeds tolerance %d at index %d",
						gap, s.cfg.MaxGapDays, i)
				}
				// carry forward, no state update
				out[i] = state
				present[i] = true
			}
			continue
		}

		gap = 0
		if !started {
			state = values[i]
			started = true
		} else {
			state = decay*state + (1-decay)*values[i]
		}
		out[i] = state
		present[i] = true
	}

	return out, present, nil
}

// sma applies a fixed-window simple moving average over the most recent
// observed raw values. Until the window fills, the mean of what exists so
// far is used, so the first observation equals the raw value.
func (s *Smoother) sma(values []float64, ok []bool) ([]float64, []bool, error) {
	out := make([]float64, len(values))
	present := make([]bool, len(values))

	window := make([]float64, 0, s.cfg.Window)
	started := false
	gap := 0
	var last float64

	for i := range values {
		if !ok[i] {
			if started {
				gap++
				if gap > s.cfg.MaxGapDays {
					return nil, nil, fmt.Errorf("score gap of %d days exceeds tolerance %d at index %d",
						gap, s.cfg.MaxGapDays, i)
				}
				out[i] = last
				present[i] = true
			}
			continue
		}

		gap = 0
		started = true
		window = append(window, values[i])
		if len(window) > s.cfg.Window {
			window = window[1:]
		}

		sum := 0.0
		for _, v := range window {
			sum += v
		}
		last = sum / float64(len(window))
		out[i] = last
		present[i] = true
	}

	return out, present, nil
}
