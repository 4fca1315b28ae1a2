package cli

import (
	"fmt"

	"github.com/rustyeddy/papertrader/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  trader config init -o trader.yaml
  trader config validate -f trader.yaml`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created default configuration: %s\n", output)
			fmt.Fprintf(cmd.OutOrStdout(), "\nEdit the file and run with:\n  trader --config %s backtest\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "trader.yaml", "output config file path")

	var path string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration valid: %s\n", path)
			fmt.Fprintf(out, "  Account:  cash %s, fee rate %s\n", cfg.Account.Cash, cfg.Account.FeeRate)
			fmt.Fprintf(out, "  Strategy: %s on %s\n", cfg.Strategy.Name, cfg.Backtest.Symbol)
			fmt.Fprintf(out, "  Data:     %s\n", cfg.Data.Source)
			fmt.Fprintf(out, "  Journal:  %s\n", cfg.Journal.Type)
			return nil
		},
	}
	validate.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = validate.MarkFlagRequired("file")

	cmd.AddCommand(initCmd, validate)
	return cmd
}
