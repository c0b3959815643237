// Command authctl runs operator tasks against the auth database directly:
// migrations, seeding tenants and users, and password hashing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/verticelabs/authcore/internal/auth/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := app.LoadConfig()

	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Operator CLI for the authcore database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.DatabaseDriver, "driver", cfg.DatabaseDriver, "Database driver: sqlite|postgres (env AUTH_DATABASE_DRIVER)")
	root.PersistentFlags().StringVar(&cfg.DatabaseFile, "db-file", cfg.DatabaseFile, "SQLite database file (env AUTH_DATABASE_FILE)")
	root.PersistentFlags().StringVar(&cfg.DatabaseURL, "db-url", cfg.DatabaseURL, "Postgres connection URL (env AUTH_DATABASE_URL)")
	root.PersistentFlags().StringVar(&cfg.PepperFile, "pepper-file", cfg.PepperFile, "Password pepper file (env AUTH_PEPPER_FILE)")

	root.AddCommand(newMigrateCmd(&cfg))
	root.AddCommand(newSeedCmd(&cfg))
	root.AddCommand(newHashPasswordCmd(&cfg))
	return root
}

func newMigrateCmd(cfg *app.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.OpenStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.DatabaseDriver)
			return nil
		},
	}
}

func newHashPasswordCmd(cfg *app.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the stored form of a password using the configured pepper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadPepper(*cfg); err != nil {
				return fmt.Errorf("load pepper: %w", err)
			}
			hash, err := hashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
