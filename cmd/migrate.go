/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"database/sql"

	"github.com/Bekawhite/DigitalLab/config"
	"github.com/Bekawhite/DigitalLab/internal/db"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(conn *sql.DB, cfg config.Config) error {
			return db.MigrateUp(conn, cfg.Database.Driver)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(conn *sql.DB, cfg config.Config) error {
			return db.MigrateDown(conn, cfg.Database.Driver)
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

// withDatabase opens the configured database for the duration of fn.
func withDatabase(cmd *cobra.Command, fn func(conn *sql.DB, cfg config.Config) error) error {
	cfg := config.LoadConfig()
	conn, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()
	return fn(conn, cfg)
}
