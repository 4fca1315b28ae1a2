package cli

import (
	"fmt"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/internal/app"
	"github.com/spf13/cobra"
)

func newBacktestCmd(rc *RootConfig) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run one strategy over historical bars",
		Long: `Backtest replays bars through a strategy against a simulated ledger and
prints the performance report. The run is stored in the configured journal.

Example:
  trader backtest -b data/aapl.csv --symbol AAPL -s sma-cross -p fast=10 -p slow=30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config()
			if err := flags.apply(cfg); err != nil {
				return err
			}
			ec, err := cfg.EngineConfig()
			if err != nil {
				return err
			}

			a, err := app.Open(cmd.Context(), cfg, rc.DBPath, rc.Logger())
			if err != nil {
				return err
			}
			defer a.Close()

			res, run, err := a.Backtest(cmd.Context(), app.BacktestRequest{
				Engine: ec,
				Spec:   cfg.StrategySpec(),
			})
			if res == nil {
				return err
			}

			out := cmd.OutOrStdout()
			backtest.PrintResult(out, res)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nRun ID:        %s\n", run.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
