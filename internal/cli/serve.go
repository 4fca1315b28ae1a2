package cli

import (
	"github.com/rustyeddy/papertrader/internal/api"
	"github.com/rustyeddy/papertrader/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd(rc *RootConfig) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the backtest HTTP API",
		Long: `Serve exposes POST /api/v1/backtest, POST /api/v1/optimize,
GET /api/v1/strategies, GET /api/v1/runs/:id and GET /health.

Requests that carry no bars are served from the configured bar source.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config()
			if addr != "" {
				cfg.Server.Addr = addr
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

			srv := api.NewServer(a,
				api.WithDefaults(ec),
				api.WithWorkers(cfg.Optimize.Workers),
				api.WithVersion(Version),
				api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
			)
			return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
