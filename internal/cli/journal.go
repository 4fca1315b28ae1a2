package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/strategies"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newJournalCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the run journal",
		Long: `Query and display backtest runs stored in the SQLite journal.

Subcommands:
  list    - List recent runs
  show    - Print one run as an Org entry
  sweep   - Print the stored rows of an optimization

Examples:
  trader journal list --limit 5
  trader journal show 01HV3K9W4ZJ6Q8X1T2N5R7M0CD`,
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTRATEGY\tSYMBOL\tPARAMS\tRETURN %")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Created.Format("2006-01-02 15:04"), r.Strategy, r.Symbol, r.Params,
					r.Metrics.TotalReturnPct.StringFixed(2))
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list (0 = all)")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one run as an Org entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.LoadRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return journal.WriteOrg(cmd.OutOrStdout(), run)
		},
	}

	sweep := &cobra.Command{
		Use:   "sweep <optimization-id>",
		Short: "Print the stored rows of an optimization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			rows, err := j.ListOptimization(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("%w: optimization %q", journal.ErrNotFound, args[0])
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POS\tGRID\tPARAMS\tRETURN %\tWIN %\tFAILURE")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
					r.Position, r.GridIndex, r.Params,
					nullFixed(r.TotalReturnPct), nullFixed(r.WinRatePct), r.Failure)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(list, show, sweep)
	return cmd
}

func nullFixed(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(2)
}

func openJournal(rc *RootConfig) (*journal.SQLite, error) {
	path := rc.DBPath
	if path == "" {
		jc := rc.Config().Journal
		if jc.Type != "sqlite" {
			return nil, fmt.Errorf("journal queries need a SQLite journal; pass --db")
		}
		path = jc.DBPath
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List available strategies and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, info := range strategies.Catalog() {
				fmt.Fprintf(out, "%s\t%s\n", info.Name, info.Description)
				for _, p := range info.Params {
					fmt.Fprintf(out, "    %-10s default %-5s %s\n", p.Name, p.Default, p.Description)
				}
			}
			return nil
		},
	}
}
