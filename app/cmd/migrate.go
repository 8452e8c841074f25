package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketconnect/helpdesk-proxy/app/app"
	"github.com/marketconnect/helpdesk-proxy/app/internal/config"
)

var migrateDSN string

// migrateCmd creates the SQLite session schema ahead of the first start.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the SQLite session schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.GetConfig()
		cfg.Repository.Type = "sqlite"
		if migrateDSN != "" {
			cfg.Repository.SQLiteDSN = migrateDSN
		}

		repo, err := app.NewRepository(cfg)
		if err != nil {
			return err
		}
		if err := repo.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", cfg.Repository.SQLiteDSN, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "session schema ready in %s\n", cfg.Repository.SQLiteDSN)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDSN, "dsn", "", "SQLite database file (overrides SQLITE_DSN)")
	rootCmd.AddCommand(migrateCmd)
}
