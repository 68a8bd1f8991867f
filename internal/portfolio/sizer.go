package portfolio

import (
	"fmt"

	"github.com/delorean-quant/delorean/internal/contracts"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/logger"
)

// fallbackVol stands in for a missing or non-positive volatility in
// risk-parity mode. Large enough that the instrument's weight collapses
// to near zero instead of blowing up.
const fallbackVol = 1e6

// Sizer converts a held set into target weights: base allocation
// (equal weight or inverse volatility), then regime exposure, volatility
// targeting, the trend leverage cap, and finally the risk-degree cash
// buffer.
type Sizer struct {
	cfg    strategyconfig.Sizing
	logger *logger.Logger
}

// Inputs for one sizing step.
type Inputs struct {
	Held   contracts.HeldSet
	Vols   map[string]float64 // annualized volatility per instrument
	Regime contracts.RegimeState
}

// Result carries the target weights plus the intermediates needed by
// reporting.
type Result struct {
	Weights         contracts.WeightVector
	EstimatedAnnVol float64 // weighted portfolio vol before scaling
	Scale           float64 // combined vol-target / trend-cap multiplier
}

func NewSizer(cfg strategyconfig.Sizing, log *logger.Logger) *Sizer {
	return &Sizer{cfg: cfg, logger: log}
}

// Size produces the target weight vector for the held set. An empty set
// yields an empty vector (fully in cash).
func (s *Sizer) Size(in Inputs) (*Result, error) {
	if len(in.Held) == 0 {
		return &Result{Weights: contracts.WeightVector{}, Scale: 1}, nil
	}

	base, err := s.baseWeights(in)
	if err != nil {
		return nil, err
	}

	estVol := 0.0
	for symbol, w := range base {
		estVol += w * in.Vols[symbol]
	}

	scale := s.volTargetScale(estVol, in.Regime.Label)
	if cap, capped := s.trendCap(in.Regime.Ratio); capped && cap < scale {
		scale = cap
	}

	exposure := in.Regime.Exposure * scale * s.cfg.RiskDegree

	weights := make(contracts.WeightVector, len(base))
	for symbol, w := range base {
		weights[symbol] = w * exposure
	}

	if err := weights.CheckFinite(); err != nil {
		return nil, fmt.Errorf("sizing produced invalid weights: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"mode":     s.cfg.Mode,
		"est_vol":  estVol,
		"scale":    scale,
		"exposure": exposure,
	}).Debug("Target weights computed")

	return &Result{Weights: weights, EstimatedAnnVol: estVol, Scale: scale}, nil
}

func (s *Sizer) baseWeights(in Inputs) (contracts.WeightVector, error) {
	base := make(contracts.WeightVector, len(in.Held))

	switch s.cfg.Mode {
	case strategyconfig.SizingEqualWeight:
		w := 1.0 / float64(len(in.Held))
		for _, symbol := range in.Held {
			base[symbol] = w
		}

	case strategyconfig.SizingRiskParity:
		total := 0.0
		for _, symbol := range in.Held {
			vol := in.Vols[symbol]
			if vol <= 0 {
				vol = fallbackVol
			}
			base[symbol] = 1.0 / vol
			total += base[symbol]
		}
		for symbol := range base {
			base[symbol] /= total
		}

	default:
		return nil, fmt.Errorf("unknown sizing mode %q", s.cfg.Mode)
	}

	return base, nil
}

// volTargetScale shrinks exposure when the estimated portfolio vol
// exceeds the regime's target. Never scales up past 1.
func (s *Sizer) volTargetScale(estVol float64, label contracts.RegimeLabel) float64 {
	if estVol <= 0 {
		return 1
	}
	target := s.cfg.TargetVol
	switch label {
	case contracts.RegimeBull:
		target = s.cfg.BullTargetVol
	case contracts.RegimeBear:
		target = s.cfg.BearTargetVol
	}
	if target <= 0 || estVol <= target {
		return 1
	}
	return target / estVol
}

// trendCap maps the price/MA ratio to an exposure cap: fully out at
// LowerRatio and below, uncapped at UpperRatio and above, linear in
// between.
func (s *Sizer) trendCap(ratio float64) (float64, bool) {
	tc := s.cfg.TrendCap
	if !tc.Enable || ratio <= 0 {
		return 0, false
	}
	switch {
	case ratio <= tc.LowerRatio:
		return 0, true
	case ratio >= tc.UpperRatio:
		return 1, true
	default:
		return (ratio - tc.LowerRatio) / (tc.UpperRatio - tc.LowerRatio), true
	}
}
