package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pgutil "github.com/cropyield/yield-service/pkg/postgres"
)

func newMigrateCmd() *cobra.Command {
	var (
		databaseURL   string
		migrationsDir string
	)

	cmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the prediction audit schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url is required")
			}
			switch args[0] {
			case "up":
				if err := pgutil.RunMigrations(databaseURL, migrationsDir); err != nil {
					return err
				}
			case "down":
				if err := pgutil.RunMigrationsDown(databaseURL, migrationsDir); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown direction %q (want up or down)", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations %s: done\n", args[0])
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	f.StringVar(&migrationsDir, "migrations", "migrations", "migrations directory or source URL")
	return cmd
}
