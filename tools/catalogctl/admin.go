package main

import (
	"fmt"

	"github.com/inkfinity/backend/database"
	"github.com/inkfinity/backend/repository"
	"github.com/inkfinity/backend/services"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	// Hashing needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := services.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <email> <password>",
	Short: "Create an admin account",
	Long: `Create an admin account in PostgreSQL. The e-mail is stored lower-cased
and must not already exist.

Examples:
  catalogctl create-admin owner@inkfinity.com 'correct horse battery'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openPostgres(ctx)
		if err != nil {
			return fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		defer database.Close(db)

		svc := services.NewAuthService(repository.NewGormAdminRepository(db), nil, log)
		admin, err := svc.CreateAdmin(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Email, admin.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(createAdminCmd)
}
