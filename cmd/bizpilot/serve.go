// cmd/bizpilot/serve.go
package main

import (
	"time"

	"bizpilot/internal/api"
	"bizpilot/internal/common/config"
	"bizpilot/internal/upload"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, and the plan worker when camunda is enabled",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if migrate {
				if err := a.store.Migrate(ctx); err != nil {
					return err
				}
			}

			if cfg.Camunda.Enabled {
				stop, err := startPlanWorker(ctx, a)
				if err != nil {
					return err
				}
				defer stop()
			}

			srv := api.New(api.Deps{
				Config:     cfg,
				Store:      a.store,
				Generator:  a.generator,
				Tokens:     a.tokens(),
				Cache:      a.cache,
				Index:      a.index,
				Sharer:     a.sharer,
				Publisher:  a.publisher,
				Uploads:    upload.NewProcessor(cfg.Upload, a.log),
				Obs:        a.obs,
				Logger:     a.log,
				Checks:     a.checks(),
				RateLimit:  cfg.Server.RateLimit,
				RateWindow: config.GetDuration(cfg.Server.RateWindow),
			})
			a.log.Info("Starting BizPilot API", map[string]interface{}{
				"address":   cfg.Server.Address,
				"aiEnabled": a.generator.AIEnabled(),
				"startedAt": time.Now().UTC().Format(time.RFC3339),
			})
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "create missing tables before serving")
	return cmd
}
