package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rustyeddy/papertrader/internal/app"
	"github.com/rustyeddy/papertrader/optimize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newOptimizeCmd(rc *RootConfig) *cobra.Command {
	var (
		flags   runFlags
		ranges  []string
		rankBy  string
		topN    int
		workers int
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Sweep strategy parameters and rank the results",
		Long: `Optimize backtests every combination of the given integer ranges and
ranks them by a metric. Ranges come from the config file or --range flags.

Metrics: total_return, win_rate, profit_factor, buy_and_hold_excess, min_drawdown

Example:
  trader optimize -b data/aapl.csv -s sma-cross -r fast=5:20:5 -r slow=20:60:10 --rank-by win_rate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config()
			if len(ranges) > 0 {
				cfg.Optimize.Ranges = nil
				for _, s := range ranges {
					r, err := parseRange(s)
					if err != nil {
						return err
					}
					cfg.Optimize.Ranges = append(cfg.Optimize.Ranges, r)
				}
			}
			if rankBy != "" {
				cfg.Optimize.RankBy = rankBy
			}
			if cmd.Flags().Changed("top") {
				cfg.Optimize.TopN = topN
			}
			if cmd.Flags().Changed("workers") {
				cfg.Optimize.Workers = workers
			}
			if all {
				cfg.Optimize.SkipInvalid = false
			}
			if err := flags.apply(cfg); err != nil {
				return err
			}
			ec, err := cfg.EngineConfig()
			if err != nil {
				return err
			}
			metric, err := optimize.ParseMetric(cfg.Optimize.RankBy)
			if err != nil {
				return err
			}
			grid := cfg.Grid()
			combos, err := grid.Combinations()
			if err != nil {
				return err
			}

			a, err := app.Open(cmd.Context(), cfg, rc.DBPath, rc.Logger())
			if err != nil {
				return err
			}
			defer a.Close()

			opt := optimize.Optimizer{
				Engine:  ec,
				Workers: cfg.Optimize.Workers,
				RankBy:  metric,
				TopN:    cfg.Optimize.TopN,
			}
			var bar *progressbar.ProgressBar
			if !rc.NoProgress {
				bar = initProgressBar(cmd.ErrOrStderr(), len(combos))
				opt.Progress = func(optimize.Progress) { _ = bar.Add(1) }
			}

			rep, optID, err := a.Optimize(cmd.Context(), app.OptimizeRequest{
				Optimizer: opt,
				Spec:      cfg.StrategySpec(),
				Grid:      grid,
			})
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if rep == nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			if optID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nOptimization ID: %s\n", optID)
			}
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVarP(&ranges, "range", "r", nil, "parameter range name=from:to[:step] (repeatable)")
	cmd.Flags().StringVar(&rankBy, "rank-by", "", "ranking metric")
	cmd.Flags().IntVar(&topN, "top", 10, "keep the best N results (0 keeps all)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel backtests (0 = number of CPUs)")
	cmd.Flags().BoolVar(&all, "all", false, "keep combinations where fast >= slow")
	return cmd
}

func initProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Optimizing..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func printReport(w io.Writer, rep *optimize.Report) {
	fmt.Fprintf(w, "Ranked by %s: %d of %d combinations\n\n", rep.RankBy, len(rep.Ranked), rep.Total)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPARAMS\tRETURN %\tMAX DD %\tWIN %\tPF\tTRADES")
	for i, e := range rep.Ranked {
		m := e.Metrics
		pf := "n/a"
		if m.ProfitFactor != nil {
			pf = m.ProfitFactor.StringFixed(2)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			i+1, e.Params,
			m.TotalReturnPct.StringFixed(2),
			m.MaxDrawdownPct.StringFixed(2),
			m.WinRatePct.StringFixed(2),
			pf, e.Trades)
	}
	_ = tw.Flush()

	if len(rep.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures (%d):\n", len(rep.Failures))
		for _, f := range rep.Failures {
			fmt.Fprintf(w, "  #%d %s: %s\n", f.Index, f.Params, f.Reason)
		}
	}
}
