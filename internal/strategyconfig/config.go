package strategyconfig

import "time"

// Config is the full set of strategy parameters. Loaded once from YAML,
// validated eagerly, then passed through the pipeline as an immutable
// value. No package-level defaults, no singletons.
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Universe    Universe    `yaml:"universe" json:"universe"`
	Smoothing   Smoothing   `yaml:"smoothing" json:"smoothing"`
	Selection   Selection   `yaml:"selection" json:"selection"`
	Sizing      Sizing      `yaml:"sizing" json:"sizing"`
	Regime      Regime      `yaml:"regime" json:"regime"`
	Execution   Execution   `yaml:"execution" json:"execution"`
	Backtest    Backtest    `yaml:"backtest" json:"backtest"`
	WalkForward WalkForward `yaml:"walk_forward" json:"walk_forward"`
	Live        Live        `yaml:"live" json:"live"`
}

// Meta identifies the strategy.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Benchmark  string `yaml:"benchmark" json:"benchmark"`
}

// Universe is the fixed tradable pool. Static for a run.
type Universe struct {
	Instruments []string `yaml:"instruments" json:"instruments"`
}

// Smoothing configures the signal smoother.
type Smoothing struct {
	Kernel     string `yaml:"kernel" json:"kernel"` // ema | sma
	Halflife   int    `yaml:"halflife" json:"halflife"`
	Window     int    `yaml:"window" json:"window"`
	MaxGapDays int    `yaml:"max_gap_days" json:"max_gap_days"`
}

// Selection configures the rank selector.
type Selection struct {
	TopK           int `yaml:"topk" json:"topk"`
	Buffer         int `yaml:"buffer" json:"buffer"`
	MaxSwapsPerDay int `yaml:"max_swaps_per_day" json:"max_swaps_per_day"`
}

// Sizing modes.
const (
	SizingEqualWeight = "equal_weight"
	SizingRiskParity  = "risk_parity"
)

// Smoothing kernels.
const (
	KernelEMA = "ema"
	KernelSMA = "sma"
)

// Sizing configures the position sizer.
type Sizing struct {
	Mode          string   `yaml:"mode" json:"mode"` // equal_weight | risk_parity
	RiskDegree    float64  `yaml:"risk_degree" json:"risk_degree"`
	VolWindow     int      `yaml:"vol_window" json:"vol_window"`
	TargetVol     float64  `yaml:"target_vol" json:"target_vol"`
	BullTargetVol float64  `yaml:"bull_target_vol" json:"bull_target_vol"`
	BearTargetVol float64  `yaml:"bear_target_vol" json:"bear_target_vol"`
	TrendCap      TrendCap `yaml:"trend_cap" json:"trend_cap"`
}

// TrendCap is the continuous leverage cap driven by the benchmark
// price/MA ratio. Exposure scales linearly from 0 at LowerRatio to 1 at
// UpperRatio.
type TrendCap struct {
	Enable     bool    `yaml:"enable" json:"enable"`
	LowerRatio float64 `yaml:"lower_ratio" json:"lower_ratio"`
	UpperRatio float64 `yaml:"upper_ratio" json:"upper_ratio"`
}

// Regime configures the bull/bear market filter.
type Regime struct {
	MAWindow       int     `yaml:"ma_window" json:"ma_window"`
	HysteresisBand float64 `yaml:"hysteresis_band" json:"hysteresis_band"`
	ExposureBull   float64 `yaml:"exposure_bull" json:"exposure_bull"`
	ExposureBear   float64 `yaml:"exposure_bear" json:"exposure_bear"`
}

// Execution configures the turnover controller.
type Execution struct {
	RebalanceThreshold   float64 `yaml:"rebalance_threshold" json:"rebalance_threshold"`
	RetentionProbability float64 `yaml:"retention_probability" json:"retention_probability"`
	RandomSeed           int64   `yaml:"random_seed" json:"random_seed"`
}

// Backtest configures simulation costs and capital.
type Backtest struct {
	InitialValue  float64 `yaml:"initial_value" json:"initial_value"`
	CommissionBps float64 `yaml:"commission_bps" json:"commission_bps"`
	SlippageBps   float64 `yaml:"slippage_bps" json:"slippage_bps"`
}

// WalkForward configures rolling train/predict validation.
type WalkForward struct {
	TrainWindowMonths      int `yaml:"train_window_months" json:"train_window_months"`
	RetrainFrequencyMonths int `yaml:"retrain_frequency_months" json:"retrain_frequency_months"`
}

// Live configures the two-pass live trading pipeline.
type Live struct {
	ValidationDays      int `yaml:"validation_days" json:"validation_days"`
	ProductionSplitDays int `yaml:"production_split_days" json:"production_split_days"`
}

// Default returns the production parameter set.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "cn_etf_rotation",
			Version:    "1.0.0",
			Benchmark:  "510300.SH",
		},
		Universe: Universe{
			Instruments: []string{
				"510300.SH", "563360.SH", "512480.SH", "516160.SH", "512690.SH",
				"512800.SH", "512010.SH", "510630.SH", "515790.SH", "512880.SH",
			},
		},
		Smoothing: Smoothing{
			Kernel:     KernelEMA,
			Halflife:   10,
			Window:     10,
			MaxGapDays: 5,
		},
		Selection: Selection{
			TopK:           4,
			Buffer:         3,
			MaxSwapsPerDay: 1,
		},
		Sizing: Sizing{
			Mode:          SizingRiskParity,
			RiskDegree:    0.95,
			VolWindow:     20,
			TargetVol:     0.20,
			BullTargetVol: 0.30,
			BearTargetVol: 0.06,
			TrendCap: TrendCap{
				Enable:     true,
				LowerRatio: 0.97,
				UpperRatio: 1.03,
			},
		},
		Regime: Regime{
			MAWindow:       60,
			HysteresisBand: 0.01,
			ExposureBull:   1.0,
			ExposureBear:   0.0,
		},
		Execution: Execution{
			RebalanceThreshold:   0.05,
			RetentionProbability: 0.96,
			RandomSeed:           42,
		},
		Backtest: Backtest{
			InitialValue:  1_000_000,
			CommissionBps: 3,
			SlippageBps:   10,
		},
		WalkForward: WalkForward{
			TrainWindowMonths:      24,
			RetrainFrequencyMonths: 1,
		},
		Live: Live{
			ValidationDays:      60,
			ProductionSplitDays: 14,
		},
	}
}

// DecisionSnapshot records the exact configuration behind a decision, for
// reproducibility.
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}
