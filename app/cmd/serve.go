package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marketconnect/helpdesk-proxy/app/app"
	"github.com/marketconnect/helpdesk-proxy/app/internal/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP server. All settings are read from the environment.",
	RunE:  runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.GetConfig()
	if servePort != 0 {
		cfg.HTTP.Port = servePort
	}

	a, err := app.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to create dependencies: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("error closing dependencies")
		}
	}()

	return a.Run(cmd.Context())
}
