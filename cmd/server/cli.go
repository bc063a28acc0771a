package main

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/phrazzld/jobd/internal/config"
	"github.com/phrazzld/jobd/internal/platform/logger"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Running the root command without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	var configPath string

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadWithFile(configPath)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}

		log, err := logger.Setup(cfg.Server)
		if err != nil {
			return err
		}
		log.Info("Server configuration loaded",
			"port", cfg.Server.Port,
			"log_level", cfg.Server.LogLevel,
			"queue_capacity", cfg.Jobs.QueueCapacity,
			"worker_count", cfg.Jobs.WorkerCount)

		app, err := newApplication(cfg, log)
		if err != nil {
			return errors.Wrap(err, "failed to initialize application")
		}
		return app.Run(cmd.Context())
	}

	root := &cobra.Command{
		Use:   "jobd",
		Short: "jobd - asynchronous job dispatch with expiring result caches",
		Long: `jobd accepts computation jobs over HTTP, runs them on a bounded worker
pool and serves their status and results from expiring caches.

Examples:
  jobd                         # Start the server with defaults and JOBD_* env vars
  jobd serve --config jobd.yaml
  jobd config                  # Print the effective configuration`,
		SilenceUsage: true,
		RunE:         serve,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a YAML, TOML or JSON config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Validate and print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithFile(configPath)
			if err != nil {
				return errors.Wrap(err, "failed to load configuration")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	})

	return root
}
