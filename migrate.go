package treemenu

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	menusql "github.com/pthm/treemenu/sql"
)

// Migrator manages the menu_nodes schema and loads menu definitions into
// PostgreSQL. Both operations are idempotent, so applications can run them
// on every startup:
//
//	migrator := treemenu.NewMigrator(db, "menu.yaml")
//	if err := migrator.ApplyDDL(ctx); err != nil { ... }
//	if migrator.HasMenu() {
//		if err := migrator.LoadFile(ctx); err != nil { ... }
//	}
//
// The migrator manages only the tree structure. Display attributes (URL,
// title) come from the menu_subjects view, which belongs to the application
// and is never touched here; `treemenu doctor` reports when it is missing.
type Migrator struct {
	db       Execer
	menuPath string
}

// NewMigrator creates a migrator. menuPath points at the YAML menu
// definition and may be empty when only ApplyDDL or GetStatus are used.
// The Execer is typically *sql.DB but can be *sql.Tx for testing.
func NewMigrator(db Execer, menuPath string) *Migrator {
	return &Migrator{db: db, menuPath: menuPath}
}

// MenuPath returns the path to the menu definition file.
func (m *Migrator) MenuPath() string {
	return m.menuPath
}

// HasMenu returns true if the menu definition file exists.
// Use this to conditionally load or skip if not configured.
func (m *Migrator) HasMenu() bool {
	if m.menuPath == "" {
		return false
	}
	_, err := os.Stat(m.menuPath)
	return err == nil
}

// ApplyDDL creates the menu_nodes table and its indexes. Idempotent
// (CREATE TABLE IF NOT EXISTS, CREATE INDEX IF NOT EXISTS); safe to call
// independently of loading to pick up index changes.
func (m *Migrator) ApplyDDL(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, menusql.NodesSQL); err != nil {
		return fmt.Errorf("applying nodes.sql: %w", err)
	}
	return nil
}

// LoadFile parses the configured menu definition and loads it.
func (m *Migrator) LoadFile(ctx context.Context) error {
	menu, err := ParseMenuFile(m.menuPath)
	if err != nil {
		return err
	}
	return m.Load(ctx, menu)
}

// Load validates the menu definition and replaces the contents of
// menu_nodes with it.
//
// The load:
//  1. Validates the definition and builds the nested-set rows
//  2. Applies DDL (so a fresh database needs no separate migrate step)
//  3. Truncates menu_nodes and bulk-inserts the new rows with explicit ids
//  4. Advances the id sequence past the highest assigned id
//
// Uses a transaction if the db supports it (*sql.DB), so concurrent readers
// see either the old menu or the new one, never an empty table.
func (m *Migrator) Load(ctx context.Context, menu *Menu) error {
	nodes, err := menu.BuildNodes()
	if err != nil {
		return err
	}

	if err := m.ApplyDDL(ctx); err != nil {
		return err
	}

	if txer, ok := m.db.(interface {
		BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	}); ok {
		tx, err := txer.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := m.applyNodes(ctx, tx, nodes); err != nil {
			return err
		}
		return tx.Commit()
	}

	// No BeginTx on the handle: the caller already supplied a transaction
	// (*sql.Tx) and owns the commit.
	return m.applyNodes(ctx, m.db, nodes)
}

// insertBatchSize is the number of nodes per bulk INSERT. With 8 bind
// parameters per row this stays well under PostgreSQL's 65535 limit.
const insertBatchSize = 1000

// applyNodes truncates and repopulates the menu_nodes table.
// TRUNCATE is transactional in PostgreSQL, ensuring atomicity when called
// within a transaction. If any insert fails, the whole load rolls back.
//
// Rows are inserted with the builder's explicit ids, in builder order.
// Parents always precede their children (the builder walks depth-first),
// so the foreign key holds across batch boundaries. The sequence is
// advanced afterwards so later hand-inserted rows don't collide.
func (m *Migrator) applyNodes(ctx context.Context, db Execer, nodes []Node) error {
	_, err := db.ExecContext(ctx, "TRUNCATE menu_nodes")
	if err != nil {
		return fmt.Errorf("truncating menu_nodes: %w", err)
	}

	if len(nodes) == 0 {
		return nil
	}

	var maxID int64
	for start := 0; start < len(nodes); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		batch := nodes[start:end]

		values := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*8)
		argIdx := 1

		for _, n := range batch {
			values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				argIdx, argIdx+1, argIdx+2, argIdx+3, argIdx+4, argIdx+5, argIdx+6, argIdx+7))
			var parentID any
			if n.ParentID != nil {
				parentID = *n.ParentID
			}
			args = append(args, n.ID, n.TreeID, parentID, n.Depth, n.Left, n.Right,
				n.Subject.Type, n.Subject.ID)
			argIdx += 8
			if n.ID > maxID {
				maxID = n.ID
			}
		}

		query := fmt.Sprintf(
			"INSERT INTO menu_nodes (id, tree_id, parent_id, depth, lft, rght, subject_type, subject_id) VALUES %s",
			strings.Join(values, ", "),
		)

		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting nodes %d-%d: %w", start, end, err)
		}
	}

	_, err = db.ExecContext(ctx,
		"SELECT setval(pg_get_serial_sequence('menu_nodes', 'id'), $1)", maxID)
	if err != nil {
		return fmt.Errorf("advancing id sequence: %w", err)
	}

	return nil
}

// Status represents the current menu deployment state.
// Use GetStatus to check whether the menu system is properly configured.
type Status struct {
	// MenuExists indicates if the menu definition file exists on disk.
	MenuExists bool

	// NodesTableExists indicates if the menu_nodes table has been created.
	// False means `treemenu migrate` has not run.
	NodesTableExists bool

	// NodeCount is the number of rows in menu_nodes.
	// Zero means no menu has been loaded (run `treemenu load`).
	NodeCount int64

	// TreeCount is the number of distinct trees in menu_nodes.
	TreeCount int64

	// IndexCount is the number of menu-related indexes found.
	// Expected to be at least 3 after a successful migration.
	IndexCount int

	// SubjectsViewExists indicates if the menu_subjects relation exists
	// (view, table, or materialized view). This must be created by the
	// application to map its domain tables.
	SubjectsViewExists bool
}

// GetStatus returns the current deployment status.
// Useful for health checks or deployment diagnostics.
func (m *Migrator) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{
		MenuExists: m.HasMenu(),
	}

	err := m.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_class c
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relname = 'menu_nodes'
			AND n.nspname = current_schema()
			AND c.relkind = 'r'
		)
	`).Scan(&status.NodesTableExists)
	if err != nil {
		return nil, fmt.Errorf("checking menu_nodes: %w", err)
	}

	if status.NodesTableExists {
		err = m.db.QueryRowContext(ctx,
			"SELECT COUNT(*), COUNT(DISTINCT tree_id) FROM menu_nodes",
		).Scan(&status.NodeCount, &status.TreeCount)
		if err != nil {
			return nil, fmt.Errorf("counting menu_nodes rows: %w", err)
		}

		err = m.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM pg_indexes
			WHERE indexname LIKE 'idx_menu_%'
		`).Scan(&status.IndexCount)
		if err != nil {
			return nil, fmt.Errorf("counting menu indexes: %w", err)
		}
	}

	// Check if menu_subjects relation exists (view, table, or materialized view)
	var subjectsExists bool
	err = m.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_class c
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relname = 'menu_subjects'
			AND n.nspname = current_schema()
			AND c.relkind IN ('r', 'v', 'm')
		)
	`).Scan(&subjectsExists)
	if err != nil {
		return nil, fmt.Errorf("checking menu_subjects: %w", err)
	}
	status.SubjectsViewExists = subjectsExists

	return status, nil
}
