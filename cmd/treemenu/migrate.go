package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pthm/treemenu"
	"github.com/pthm/treemenu/internal/cli"
)

var migrateDB string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create menu tables in the database",
	Long:  `Create the menu_nodes table and its indexes in PostgreSQL.`,
	Example: `  # Create menu tables
  treemenu migrate --db postgres://localhost/mydb

  # Using config or TREEMENU_DATABASE_URL
  treemenu migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(migrateDB)
		if err != nil {
			return err
		}

		return runMigrate(dsn)
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDB, "db", "", "database URL")
}

// resolveDSN gets the database DSN from flag or config.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	if dsn == "" {
		return "", cli.ConfigError("database URL is required (use --db or set in config)", nil)
	}
	return dsn, nil
}

func runMigrate(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	m := treemenu.NewMigrator(db, "")

	if !quiet {
		fmt.Println("Applying menu infrastructure...")
	}

	if err := m.ApplyDDL(ctx); err != nil {
		return cli.GeneralError("migration failed", err)
	}

	if !quiet {
		fmt.Println("Menu schema applied successfully.")
	}

	// Check for menu_subjects warning
	status, err := m.GetStatus(ctx)
	if err == nil && !status.SubjectsViewExists && !quiet {
		fmt.Println()
		fmt.Println("WARNING: menu_subjects view/table does not exist.")
		fmt.Println("         Nodes resolve without URLs or titles until you create it.")
	}

	return nil
}
