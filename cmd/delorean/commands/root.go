package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/delorean-quant/delorean/internal/marketdata"
	"github.com/delorean-quant/delorean/internal/marketdata/feed"
	"github.com/delorean-quant/delorean/internal/strategyconfig"
	"github.com/delorean-quant/delorean/pkg/config"
	"github.com/delorean-quant/delorean/pkg/logger"
)

var (
	strategyPath string
	dataDir      string
)

var rootCmd = &cobra.Command{
	Use:   "delorean",
	Short: "Delorean - ETF rotation strategy engine",
	Long: `Delorean runs a daily ETF rotation strategy: model scores are
smoothed, ranked with hysteresis, sized by risk parity under a market
regime filter, and executed with turnover controls.

Examples:
  delorean backtest --from 2023-01-01 --to 2024-12-31
  delorean walkforward --from 2021-01-01 --to 2024-12-31
  delorean signal
  delorean api
  delorean scheduler`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy-config", "", "strategy YAML path (default from STRATEGY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "read prices from per-symbol CSV files instead of the live feed")
}

// deps is everything most commands need to start.
type deps struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	rawYAML  []byte
	hash     string
}

func setup() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.New(cfg)

	path := cfg.StrategyConfigPath
	if strategyPath != "" {
		path = strategyPath
	}
	strategy, rawYAML, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading strategy config %s: %w", path, err)
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hashing strategy config: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy":    strategy.Meta.StrategyID,
		"config_hash": hash,
	}).Info("Strategy configuration loaded")

	return &deps{cfg: cfg, log: log, strategy: strategy, rawYAML: rawYAML, hash: hash}, nil
}

// provider picks the price source: CSV fixtures when --data-dir is set,
// the live Eastmoney feed otherwise.
func (d *deps) provider() marketdata.PanelProvider {
	if dataDir != "" {
		return marketdata.NewCSVProvider(dataDir)
	}
	return marketdata.NewFeedProvider(feed.NewEastmoneyFeed(d.cfg.Feed, d.log))
}
