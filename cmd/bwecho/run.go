/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"github.com/spf13/cobra"

	"github.com/acronis/go-bwlimit/log"
)

var runFlags struct {
	listenAddress string
	logLevel      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the echo server",
	Long: `Start the echo server with the specified configuration.

Examples:
  # Start with defaults
  bwecho run

  # Start with custom config
  bwecho run --config /etc/bwecho/config.yaml

  # Override listen address
  bwecho run --listen 0.0.0.0:8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadAppConfig(cfgFile)
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Server.Address = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Log.Level = log.Level(runFlags.logLevel)
	}

	logger, closeLog := log.NewLogger(cfg.Log)
	defer closeLog()

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("bwecho initialization failed", log.Error(err))
		return err
	}
	return a.run(cmd.Context())
}
