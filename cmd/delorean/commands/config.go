package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the strategy configuration",
	Long: `Validates the strategy YAML and prints its content hash. The hash
identifies the exact parameter set behind every persisted
recommendation and backtest.

Example:
  delorean config check
  delorean config show`,
}

var (
	configCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate the strategy YAML",
		RunE:  runConfigCheck,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the resolved strategy YAML and its hash",
		RunE:  runConfigShow,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	d, err := setup()
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s v%s is valid\n", d.strategy.Meta.StrategyID, d.strategy.Meta.Version)
	fmt.Printf("   config hash: %s\n", d.hash)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	d, err := setup()
	if err != nil {
		return err
	}

	fmt.Printf("# config hash: %s\n", d.hash)
	fmt.Print(string(d.rawYAML))
	return nil
}
