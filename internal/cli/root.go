package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// RootConfig holds the persistent flags and what PersistentPreRunE builds
// from them.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	NoProgress bool

	cfg *config.Config
	log *zap.Logger
}

// Config returns the loaded configuration.
func (rc *RootConfig) Config() *config.Config { return rc.cfg }

func (rc *RootConfig) Logger() *zap.Logger {
	if rc.log == nil {
		return zap.NewNop()
	}
	return rc.log
}

func (rc *RootConfig) load(cmd *cobra.Command) error {
	var err error
	if rc.ConfigPath != "" {
		if rc.cfg, err = config.LoadFromFile(rc.ConfigPath); err != nil {
			return err
		}
	} else {
		rc.cfg = config.Default()
	}

	level := rc.cfg.Log.Level
	if cmd.Flags().Changed("log-level") || level == "" {
		level = rc.LogLevel
	}
	rc.log, err = logging.NewWithWriter(level, cmd.ErrOrStderr())
	return err
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "trader",
		Short:         "Deterministic backtesting and parameter sweeps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "", "SQLite journal database (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error|off")
	cmd.PersistentFlags().BoolVar(&rc.NoProgress, "no-progress", false, "Disable progress bars")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rc.load(cmd)
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if rc.log != nil {
			_ = rc.log.Sync()
		}
	}

	cmd.AddCommand(
		newBacktestCmd(rc),
		newOptimizeCmd(rc),
		newServeCmd(rc),
		newJournalCmd(rc),
		newConfigCmd(),
		newStrategiesCmd(),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trader %s\n", Version)
		},
	})

	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, NewRootCmd(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cobra.Command, args []string, stdout, stderr io.Writer) error {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}
