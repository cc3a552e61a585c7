package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/yourusername/mastery-api/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		return printVersion(cmd, db, cfg.Database.MigrationsPath)
	},
}

// migrateForceCmd снимает флаг dirty после неудачной миграции
var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Force the schema version and clear the dirty flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("version must be a number: %w", err)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		if err := database.ForceMigrationVersion(db, cfg.Database.MigrationsPath, version); err != nil {
			return err
		}
		return printVersion(cmd, db, cfg.Database.MigrationsPath)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		return printVersion(cmd, db, cfg.Database.MigrationsPath)
	},
}

func printVersion(cmd *cobra.Command, db *gorm.DB, sourceURL string) error {
	version, dirty, err := database.MigrationVersion(db, sourceURL)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (dirty: %t)\n", version, dirty)
	return nil
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateForceCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}
