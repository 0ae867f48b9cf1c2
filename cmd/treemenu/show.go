package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/ddddddO/gtree"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pthm/treemenu"
	"github.com/pthm/treemenu/internal/cli"
)

var (
	showDB     string
	showMenu   string
	showFromDB bool
	showDepth  int
)

var showCmd = &cobra.Command{
	Use:   "show [menu-file]",
	Short: "Render a menu as a tree",
	Long: `Render a menu definition file, or the menu loaded in the database,
as a tree on stdout.

Rendering from a file does not validate it, so show can be used to inspect
definitions that load rejects.`,
	Example: `  # Render the configured menu definition
  treemenu show

  # Render a specific file
  treemenu show site-menu.yaml

  # Render the menu loaded in the database
  treemenu show --from-db

  # Limit to the first two levels
  treemenu show --depth 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var argMenu string
		if len(args) == 1 {
			argMenu = args[0]
		}
		menuPath := resolveString(argMenu, showMenu, cfg.Show.Menu, cfg.Menu)
		depth := showDepth
		if depth == 0 {
			depth = cfg.Show.MaxDepth
		}

		if showFromDB || showDB != "" {
			dsn, err := resolveDSN(showDB)
			if err != nil {
				return err
			}
			return runShowDB(dsn, depth)
		}

		return runShowFile(menuPath, depth)
	},
}

func init() {
	f := showCmd.Flags()
	f.StringVar(&showDB, "db", "", "database URL (implies --from-db)")
	f.StringVar(&showMenu, "menu", "", "path to menu definition file")
	f.BoolVar(&showFromDB, "from-db", false, "render the loaded menu instead of the file")
	f.IntVar(&showDepth, "depth", 0, "number of levels to render (0 = all)")
}

// nodeLabel formats a single tree line: the title when known, the subject
// reference otherwise, with the URL appended when present.
func nodeLabel(title, subject, url string) string {
	label := title
	if label == "" {
		label = subject
	}
	if url != "" {
		label += " (" + url + ")"
	}
	return label
}

func runShowFile(menuPath string, depth int) error {
	menu, err := treemenu.ParseMenuFile(menuPath)
	if err != nil {
		return cli.MenuParseError("menu error", err)
	}

	if len(menu.Items) == 0 {
		fmt.Println("Menu has no items.")
		return nil
	}

	for _, item := range menu.Items {
		root := gtree.NewRoot(nodeLabel(item.Title, item.Subject, item.URL))
		addItems(root, item.Children, 1, depth)
		if err := gtree.OutputProgrammably(os.Stdout, root); err != nil {
			return cli.GeneralError("rendering menu", err)
		}
	}
	return nil
}

// addItems attaches children recursively, stopping at the level limit.
func addItems(parent *gtree.Node, items []treemenu.Item, level, limit int) {
	if limit > 0 && level >= limit {
		return
	}
	for _, item := range items {
		node := parent.Add(nodeLabel(item.Title, item.Subject, item.URL))
		addItems(node, item.Children, level+1, limit)
	}
}

func runShowDB(dsn string, depth int) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	store := treemenu.NewSQLStore(db)

	nodes, err := store.AllNodes(ctx)
	if err != nil {
		return cli.GeneralError("reading menu from database", err)
	}

	if len(nodes) == 0 {
		fmt.Println("No menu loaded.")
		return nil
	}

	// Nodes arrive in tree order, so parents always precede children.
	var roots []*gtree.Node
	byID := make(map[int64]*gtree.Node, len(nodes))
	for i := range nodes {
		n := &nodes[i]
		if depth > 0 && n.Depth >= depth {
			continue
		}
		label := nodeLabel(n.Title, n.Subject.String(), n.URL)
		if n.ParentID == nil {
			root := gtree.NewRoot(label)
			byID[n.ID] = root
			roots = append(roots, root)
			continue
		}
		parent, ok := byID[*n.ParentID]
		if !ok {
			continue // parent filtered out or missing
		}
		byID[n.ID] = parent.Add(label)
	}

	for _, root := range roots {
		if err := gtree.OutputProgrammably(os.Stdout, root); err != nil {
			return cli.GeneralError("rendering menu", err)
		}
	}
	return nil
}
