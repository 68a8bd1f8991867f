package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"missing benchmark", func(c *Config) { c.Meta.Benchmark = "" }, "meta.benchmark"},
		{"empty universe", func(c *Config) { c.Universe.Instruments = nil }, "universe.instruments"},
		{"duplicate symbol", func(c *Config) {
			c.Universe.Instruments = []string{"510300.SH", "510300.SH", "512480.SH", "516160.SH",
				"512690.SH", "512800.SH", "512010.SH"}
		}, "universe.instruments[1]"},
		{"unknown kernel", func(c *Config) { c.Smoothing.Kernel = "wavelet" }, "smoothing.kernel"},
		{"ema without halflife", func(c *Config) { c.Smoothing.Halflife = 0 }, "smoothing.halflife"},
		{"zero topk", func(c *Config) { c.Selection.TopK = 0 }, "selection.topk"},
		{"selection wider than universe", func(c *Config) { c.Selection.Buffer = 100 }, "selection"},
		{"unknown sizing mode", func(c *Config) { c.Sizing.Mode = "kelly" }, "sizing.mode"},
		{"risk degree above one", func(c *Config) { c.Sizing.RiskDegree = 1.5 }, "sizing.risk_degree"},
		{"bull target below bear", func(c *Config) {
			c.Sizing.BullTargetVol = 0.05
			c.Sizing.BearTargetVol = 0.10
		}, "sizing"},
		{"inverted trend cap", func(c *Config) {
			c.Sizing.TrendCap.LowerRatio = 1.05
			c.Sizing.TrendCap.UpperRatio = 0.95
		}, "sizing.trend_cap"},
		{"ma window too small", func(c *Config) { c.Regime.MAWindow = 1 }, "regime.ma_window"},
		{"bear exposure above bull", func(c *Config) {
			c.Regime.ExposureBull = 0.2
			c.Regime.ExposureBear = 0.8
		}, "regime"},
		{"retention probability above one", func(c *Config) { c.Execution.RetentionProbability = 1.2 }, "execution.retention_probability"},
		{"negative commission", func(c *Config) { c.Backtest.CommissionBps = -1 }, "backtest.commission_bps"},
		{"zero train window", func(c *Config) { c.WalkForward.TrainWindowMonths = 0 }, "walk_forward.train_window_months"},
		{"zero validation days", func(c *Config) { c.Live.ValidationDays = 0 }, "live.validation_days"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalYAML = `
meta:
  strategy_id: test_rotation
  version: "0.1.0"
  benchmark: 510300.SH
universe:
  instruments: [510300.SH, 512480.SH, 516160.SH]
smoothing:
  kernel: ema
  halflife: 5
  window: 5
  max_gap_days: 3
selection:
  topk: 2
  buffer: 1
  max_swaps_per_day: 1
sizing:
  mode: equal_weight
  risk_degree: 1.0
  vol_window: 20
  target_vol: 0
  bull_target_vol: 0
  bear_target_vol: 0
  trend_cap:
    enable: false
    lower_ratio: 0.97
    upper_ratio: 1.03
regime:
  ma_window: 10
  hysteresis_band: 0.01
  exposure_bull: 1.0
  exposure_bear: 0.0
execution:
  rebalance_threshold: 0.05
  retention_probability: 0.0
  random_seed: 7
backtest:
  initial_value: 100000
  commission_bps: 3
  slippage_bps: 10
walk_forward:
  train_window_months: 12
  retrain_frequency_months: 3
live:
  validation_days: 30
  production_split_days: 10
`

func TestLoadParsesAndValidates(t *testing.T) {
	path := writeYAML(t, minimalYAML)

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	assert.Equal(t, "test_rotation", cfg.Meta.StrategyID)
	assert.Equal(t, 2, cfg.Selection.TopK)
	assert.Equal(t, SizingEqualWeight, cfg.Sizing.Mode)
	assert.Equal(t, int64(7), cfg.Execution.RandomSeed)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeYAML(t, minimalYAML+"\nleverage: 3\n")

	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestHashIsDeterministicAndSensitive(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	b, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := Default()
	changed.Selection.TopK = 5
	c, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
