package strategyconfig

import "fmt"

// ValidationError is a fatal configuration defect. Configuration errors
// are rejected here, at construction time, never mid-backtest.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints.
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if cfg.Meta.Benchmark == "" {
		return ValidationError{"meta.benchmark", "required"}
	}

	// === Universe ===
	if len(cfg.Universe.Instruments) == 0 {
		return ValidationError{"universe.instruments", "must not be empty"}
	}
	seen := make(map[string]bool, len(cfg.Universe.Instruments))
	for i, symbol := range cfg.Universe.Instruments {
		if symbol == "" {
			return ValidationError{fmt.Sprintf("universe.instruments[%d]", i), "empty symbol"}
		}
		if seen[symbol] {
			return ValidationError{fmt.Sprintf("universe.instruments[%d]", i), fmt.Sprintf("duplicate symbol %s", symbol)}
		}
		seen[symbol] = true
	}

	// === Smoothing ===
	switch cfg.Smoothing.Kernel {
	case KernelEMA:
		if cfg.Smoothing.Halflife <= 0 {
			return ValidationError{"smoothing.halflife", "must be > 0 for ema kernel"}
		}
	case KernelSMA:
		if cfg.Smoothing.Window <= 0 {
			return ValidationError{"smoothing.window", "must be > 0 for sma kernel"}
		}
	default:
		return ValidationError{"smoothing.kernel", "must be ema or sma"}
	}
	if cfg.Smoothing.MaxGapDays < 0 {
		return ValidationError{"smoothing.max_gap_days", "must be >= 0"}
	}

	// === Selection ===
	if cfg.Selection.TopK <= 0 {
		return ValidationError{"selection.topk", "must be > 0"}
	}
	if cfg.Selection.Buffer < 0 {
		return ValidationError{"selection.buffer", "must be >= 0"}
	}
	if cfg.Selection.MaxSwapsPerDay < 1 {
		return ValidationError{"selection.max_swaps_per_day", "must be >= 1"}
	}
	if cfg.Selection.TopK+cfg.Selection.Buffer > len(cfg.Universe.Instruments) {
		return ValidationError{"selection", fmt.Sprintf(
			"topk+buffer=%d exceeds universe size %d",
			cfg.Selection.TopK+cfg.Selection.Buffer, len(cfg.Universe.Instruments))}
	}

	// === Sizing ===
	if cfg.Sizing.Mode != SizingEqualWeight && cfg.Sizing.Mode != SizingRiskParity {
		return ValidationError{"sizing.mode", "must be equal_weight or risk_parity"}
	}
	if cfg.Sizing.RiskDegree <= 0 || cfg.Sizing.RiskDegree > 1 {
		return ValidationError{"sizing.risk_degree", "must be in (0, 1]"}
	}
	if cfg.Sizing.Mode == SizingRiskParity && cfg.Sizing.VolWindow <= 1 {
		return ValidationError{"sizing.vol_window", "must be > 1 for risk_parity mode"}
	}
	if cfg.Sizing.TargetVol < 0 {
		return ValidationError{"sizing.target_vol", "must be >= 0 (0 disables vol targeting)"}
	}
	if cfg.Sizing.TargetVol > 0 {
		if cfg.Sizing.BullTargetVol < cfg.Sizing.BearTargetVol {
			return ValidationError{"sizing", "bull_target_vol must be >= bear_target_vol"}
		}
	}
	if cfg.Sizing.TrendCap.Enable {
		if cfg.Sizing.TrendCap.LowerRatio >= cfg.Sizing.TrendCap.UpperRatio {
			return ValidationError{"sizing.trend_cap", "lower_ratio must be < upper_ratio"}
		}
	}

	// === Regime ===
	if cfg.Regime.MAWindow <= 1 {
		return ValidationError{"regime.ma_window", "must be > 1"}
	}
	if cfg.Regime.HysteresisBand < 0 || cfg.Regime.HysteresisBand >= 1 {
		return ValidationError{"regime.hysteresis_band", "must be in [0, 1)"}
	}
	if err := validatePctRange(cfg.Regime.ExposureBull, "regime.exposure_bull"); err != nil {
		return err
	}
	if err := validatePctRange(cfg.Regime.ExposureBear, "regime.exposure_bear"); err != nil {
		return err
	}
	if cfg.Regime.ExposureBear > cfg.Regime.ExposureBull {
		return ValidationError{"regime", "exposure_bear must be <= exposure_bull"}
	}

	// === Execution ===
	if err := validatePctRange(cfg.Execution.RebalanceThreshold, "execution.rebalance_threshold"); err != nil {
		return err
	}
	if err := validatePctRange(cfg.Execution.RetentionProbability, "execution.retention_probability"); err != nil {
		return err
	}

	// === Backtest ===
	if cfg.Backtest.InitialValue <= 0 {
		return ValidationError{"backtest.initial_value", "must be > 0"}
	}
	if cfg.Backtest.CommissionBps < 0 {
		return ValidationError{"backtest.commission_bps", "must be >= 0"}
	}
	if cfg.Backtest.SlippageBps < 0 {
		return ValidationError{"backtest.slippage_bps", "must be >= 0"}
	}

	// === WalkForward ===
	if cfg.WalkForward.TrainWindowMonths <= 0 {
		return ValidationError{"walk_forward.train_window_months", "must be > 0"}
	}
	if cfg.WalkForward.RetrainFrequencyMonths <= 0 {
		return ValidationError{"walk_forward.retrain_frequency_months", "must be > 0"}
	}

	// === Live ===
	if cfg.Live.ValidationDays <= 0 {
		return ValidationError{"live.validation_days", "must be > 0"}
	}
	if cfg.Live.ProductionSplitDays <= 0 {
		return ValidationError{"live.production_split_days", "must be > 0"}
	}

	return nil
}

// validatePctRange checks that a fraction is within [0, 1].
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
