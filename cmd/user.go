/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Bekawhite/DigitalLab/config"
	"github.com/Bekawhite/DigitalLab/internal/logging"
	"github.com/Bekawhite/DigitalLab/internal/services"
	"github.com/Bekawhite/DigitalLab/internal/store"
	"github.com/spf13/cobra"
)

var deleteUsername string

// userCmd groups account administration.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage portal accounts",
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a user with their profile, results and notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(conn *sql.DB, cfg config.Config) error {
			log := logging.New(cfg.LogLevel, cfg.LogFormat)
			users := services.NewUserService(store.New(conn).Users, log)

			user, err := users.DeleteByUsername(cmd.Context(), deleteUsername)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("user %q not found", deleteUsername)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s user %q (id %d)\n", user.Role, user.Username, user.ID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userDeleteCmd)
	userDeleteCmd.Flags().StringVar(&deleteUsername, "username", "", "username of the account to delete")
	_ = userDeleteCmd.MarkFlagRequired("username")
}
