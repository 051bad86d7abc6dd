package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lookyswappy/internal/infrastructure/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE:  runMigrate,
}

func runMigrate(_ *cobra.Command, _ []string) error {
	mg := migration.NewMigration(cfg, migration.DefaultEngine)
	if err := mg.Up(); err != nil {
		return err
	}

	color.Green("Migrations applied")
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
