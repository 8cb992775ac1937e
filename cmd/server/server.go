// Command server runs the lobex matching engine process: one matching
// loop per configured symbol, a TCP order/query port, and an HTTP port
// serving Prometheus metrics and websocket execution pushes. Adapted from
// the teacher's cmd/main.go signal-handling shape, generalized to cobra +
// viper configuration (no teacher CLI layer existed to adapt — see
// DESIGN.md).
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saiputravu/lobex/internal/config"
	"github.com/saiputravu/lobex/internal/server"
)

func main() {
	var configFile string

	root := &cobra.Command{
		Use:   "lobex-server",
		Short: "Run the lobex matching engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				level = zerolog.InfoLevel
			}
			zerolog.SetGlobalLevel(level)

			log.Info().
				Strs("symbols", cfg.Symbols).
				Str("address", cfg.Address).
				Int("port", cfg.Port).
				Int("metrics_port", cfg.MetricsPort).
				Msg("starting lobex")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			app := server.New(cfg)
			return app.Run(ctx)
		},
	}

	root.Flags().StringVar(&configFile, "config", "", "path to a config file (optional; env vars take precedence)")

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("lobex-server exited with error")
	}
}
