package cli

import (
	"context"
	"os"
	"os/signal"
	"pollhub/backend/config"
	"pollhub/backend/global"
	"pollhub/backend/initialize"
	"pollhub/backend/server"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP registry server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := initialize.InitLogger(cfg.Log); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := initialize.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					global.Logger.Error().Err(err).Msg("close store")
				}
			}()

			if *cfgPath != "" {
				watchConfig(*cfgPath)
			}
			return server.Run(ctx, cfg.Server.Host, cfg.Server.Port, app.Router, cfg.Server.ShutdownTimeout)
		},
	}
}

// watchConfig reapplies the log level when the config file changes; other keys need a restart.
func watchConfig(path string) {
	err := config.Watch(path, func(cfg *config.Config) {
		if err := initialize.SetLevel(cfg.Log.Level); err != nil {
			global.Logger.Warn().Err(err).Msg("config reload: bad log level")
			return
		}
		global.Logger.Info().Str("level", cfg.Log.Level).Msg("config reloaded")
	}, func(err error) {
		global.Logger.Warn().Err(err).Msg("config reload failed")
	})
	if err != nil {
		global.Logger.Warn().Err(err).Msg("config watch disabled")
	}
}

func newMigrateCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := initialize.InitLogger(cfg.Log); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			_, closers, err := initialize.OpenStore(ctx, cfg.Store)
			if err != nil {
				return err
			}
			for _, c := range closers {
				_ = c()
			}
			global.Logger.Info().Str("driver", cfg.Store.Driver).Msg("migration complete")
			return nil
		},
	}
}
