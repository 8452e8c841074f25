package main

import (
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "undefined"
)

// rootCmd represents the base command; without a subcommand it serves.
var rootCmd = &cobra.Command{
	Use:           "helpdesk-proxy",
	Short:         "Authenticated proxy between the support dashboard and the Zendesk API",
	Version:       Version + " (" + BuildTime + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}
