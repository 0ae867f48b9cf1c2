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

var (
	loadDB     string
	loadMenu   string
	loadDryRun bool
)

var loadCmd = &cobra.Command{
	Use:   "load [menu-file]",
	Short: "Load a menu definition into the database",
	Long: `Load a YAML menu definition into PostgreSQL.

The definition is validated, converted to nested-set rows, and replaces the
currently loaded menu atomically. Running load again with the same file is
a no-op for readers.`,
	Example: `  # Load the configured menu definition
  treemenu load --db postgres://localhost/mydb

  # Load a specific file
  treemenu load site-menu.yaml --db postgres://localhost/mydb

  # Validate and show what would be loaded without applying
  treemenu load --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var argMenu string
		if len(args) == 1 {
			argMenu = args[0]
		}
		menuPath := resolveString(argMenu, loadMenu, cfg.Load.Menu, cfg.Menu)
		dryRun := resolveBool(loadDryRun, cfg.Load.DryRun)

		if dryRun {
			return runLoadDryRun(menuPath)
		}

		dsn, err := resolveDSN(loadDB)
		if err != nil {
			return err
		}

		return runLoad(dsn, menuPath)
	},
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&loadDB, "db", "", "database URL")
	f.StringVar(&loadMenu, "menu", "", "path to menu definition file")
	f.BoolVar(&loadDryRun, "dry-run", false, "validate and report without applying")
}

func runLoadDryRun(menuPath string) error {
	menu, err := treemenu.ParseMenuFile(menuPath)
	if err != nil {
		return cli.MenuParseError("menu error", err)
	}

	nodes, err := menu.BuildNodes()
	if err != nil {
		return cli.MenuParseError("menu error", err)
	}

	if !quiet {
		fmt.Printf("Menu %s is valid.\n", menuPath)
		fmt.Printf("Would load %d nodes in %d trees.\n", len(nodes), len(menu.Items))
	}
	return nil
}

func runLoad(dsn, menuPath string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	m := treemenu.NewMigrator(db, menuPath)

	if !m.HasMenu() {
		return cli.MenuParseError(fmt.Sprintf("menu definition not found at %s", menuPath), nil)
	}

	menu, err := treemenu.ParseMenuFile(menuPath)
	if err != nil {
		return cli.MenuParseError("menu error", err)
	}

	if !quiet {
		fmt.Printf("Loading %s...\n", menuPath)
	}

	if err := m.Load(ctx, menu); err != nil {
		if treemenu.IsInvalidMenuErr(err) {
			return cli.MenuParseError("menu error", err)
		}
		return cli.GeneralError("load failed", err)
	}

	if !quiet {
		fmt.Printf("Loaded %d nodes in %d trees.\n", menu.CountItems(), len(menu.Items))
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
