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
	statusDB   string
	statusMenu string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show menu deployment state",
	Long:  `Show whether the menu schema exists, what is loaded, and whether the subjects view is in place.`,
	Example: `  # Check status
  treemenu status --db postgres://localhost/mydb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		menuPath := cfg.ResolvedMenu(statusMenu)

		dsn, err := resolveDSN(statusDB)
		if err != nil {
			return err
		}

		return runStatus(dsn, menuPath)
	},
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusDB, "db", "", "database URL")
	f.StringVar(&statusMenu, "menu", "", "path to menu definition file")
}

func runStatus(dsn, menuPath string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	m := treemenu.NewMigrator(db, menuPath)

	s, err := m.GetStatus(ctx)
	if err != nil {
		return cli.GeneralError("getting status", err)
	}

	if s.MenuExists {
		fmt.Println("Menu file:      present")
	} else {
		fmt.Println("Menu file:      missing")
	}
	if s.NodesTableExists {
		fmt.Println("Nodes table:    present")
		fmt.Printf("Nodes loaded:   %d (%d trees)\n", s.NodeCount, s.TreeCount)
		fmt.Printf("Menu indexes:   %d\n", s.IndexCount)
	} else {
		fmt.Println("Nodes table:    missing")
	}
	if s.SubjectsViewExists {
		fmt.Println("Subjects view:  present")
	} else {
		fmt.Println("Subjects view:  missing")
	}

	if !s.NodesTableExists {
		fmt.Println("\nNodes table not found.")
		fmt.Println("Run 'treemenu migrate' to create it.")
	} else if s.NodeCount == 0 {
		fmt.Println("\nNo menu loaded.")
		fmt.Println("Run 'treemenu load' to load the menu definition.")
	} else if !s.SubjectsViewExists {
		fmt.Println("\nSubjects view not found.")
		fmt.Println("Create menu_subjects before resolving menus.")
	}

	return nil
}
