package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/treemenu"
	"github.com/pthm/treemenu/test/testutil"
)

// TestMigrator_ApplyDDL verifies schema creation is idempotent and reported
// accurately by GetStatus.
func TestMigrator_ApplyDDL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.EmptyDB(t)
	ctx := context.Background()
	m := treemenu.NewMigrator(db, "")

	require.NoError(t, m.ApplyDDL(ctx))
	require.NoError(t, m.ApplyDDL(ctx), "ApplyDDL must be idempotent")

	status, err := m.GetStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.MenuExists, "no menu file configured")
	assert.True(t, status.NodesTableExists)
	assert.EqualValues(t, 0, status.NodeCount)
	assert.EqualValues(t, 0, status.TreeCount)
	assert.GreaterOrEqual(t, status.IndexCount, 3, "subject, tree and parent indexes")
	assert.False(t, status.SubjectsViewExists, "empty database has no subjects view")
}

// TestMigrator_Load verifies a load populates menu_nodes with the builder's
// rows and advances the id sequence past them.
func TestMigrator_Load(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.EmptyDB(t)
	ctx := context.Background()
	m := treemenu.NewMigrator(db, "")

	// Load applies the DDL itself; no separate migrate step needed
	require.NoError(t, m.Load(ctx, testutil.TestMenu(t)))

	status, err := m.GetStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, status.NodeCount)
	assert.EqualValues(t, 2, status.TreeCount)

	// Spot-check the nested set numbering of both roots
	var lft, rght, depth int
	err = db.QueryRowContext(ctx,
		"SELECT lft, rght, depth FROM menu_nodes WHERE id = 1").Scan(&lft, &rght, &depth)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 8, 0}, []int{lft, rght, depth})

	err = db.QueryRowContext(ctx,
		"SELECT lft, rght, depth FROM menu_nodes WHERE id = 5").Scan(&lft, &rght, &depth)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 0}, []int{lft, rght, depth})

	// The sequence continues after the loader's explicit ids
	var nextID int64
	err = db.QueryRowContext(ctx, `
		INSERT INTO menu_nodes (tree_id, parent_id, depth, lft, rght, subject_type, subject_id)
		VALUES (3, NULL, 0, 1, 2, 'page', 'extra')
		RETURNING id
	`).Scan(&nextID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, nextID, "sequence should continue after the loaded ids")
}

// TestMigrator_Reload verifies that loading replaces the previous menu
// atomically rather than appending to it.
func TestMigrator_Reload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.DB(t)
	ctx := context.Background()
	m := treemenu.NewMigrator(db, "")

	// Reloading the same menu is a no-op in effect
	require.NoError(t, m.Load(ctx, testutil.TestMenu(t)))
	status, err := m.GetStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, status.NodeCount)

	// Loading a smaller menu drops the rest
	menu, err := treemenu.ParseMenu([]byte(`
items:
  - subject: page:1
    children:
      - subject: page:3
`))
	require.NoError(t, err)
	require.NoError(t, m.Load(ctx, menu))

	status, err = m.GetStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, status.NodeCount)
	assert.EqualValues(t, 1, status.TreeCount)

	n, err := testutil.Store(db).NodeBySubject(ctx, treemenu.Subject{Type: "page", ID: "3"})
	require.NoError(t, err)
	assert.Equal(t, 1, n.Depth)
	assert.Equal(t, "/about", n.URL, "subjects view still supplies the url")
}

// TestMigrator_LoadInvalidMenu verifies validation runs before any table
// change, leaving the previous menu intact.
func TestMigrator_LoadInvalidMenu(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.DB(t)
	ctx := context.Background()
	m := treemenu.NewMigrator(db, "")

	bad := &treemenu.Menu{Items: []treemenu.Item{
		{Subject: "page:1"},
		{Subject: "page:1"}, // duplicate
	}}
	err := m.Load(ctx, bad)
	assert.True(t, treemenu.IsInvalidMenuErr(err), "expected ErrInvalidMenu, got: %v", err)

	status, err := m.GetStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, status.NodeCount, "failed load must not touch the table")
}

// TestMigrator_LoadFile verifies the file-based load path used by the CLI.
func TestMigrator_LoadFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.EmptyDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.MenuYAML()), 0o644))

	m := treemenu.NewMigrator(db, path)
	require.True(t, m.HasMenu())
	require.NoError(t, m.LoadFile(ctx))

	status, err := m.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.MenuExists)
	assert.EqualValues(t, 6, status.NodeCount)
}

// TestMigrator_GetStatus verifies the full status against the fixture
// database, which has everything in place.
func TestMigrator_GetStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.DB(t)
	ctx := context.Background()

	status, err := treemenu.NewMigrator(db, "").GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.NodesTableExists)
	assert.EqualValues(t, 6, status.NodeCount)
	assert.EqualValues(t, 2, status.TreeCount)
	assert.GreaterOrEqual(t, status.IndexCount, 3)
	assert.True(t, status.SubjectsViewExists)
}

// TestStore_SchemaSentinels verifies missing schema pieces map to the
// sentinel errors applications check for.
func TestStore_SchemaSentinels(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := testutil.EmptyDB(t)
	ctx := context.Background()
	store := testutil.Store(db)

	// Nothing migrated yet
	_, err := store.AllNodes(ctx)
	assert.True(t, treemenu.IsNoNodesTableErr(err), "expected ErrNoNodesTable, got: %v", err)

	// Migrated but no subjects view: the join fails at planning time
	require.NoError(t, treemenu.NewMigrator(db, "").ApplyDDL(ctx))
	_, err = store.AllNodes(ctx)
	assert.True(t, treemenu.IsNoSubjectsViewErr(err), "expected ErrNoSubjectsView, got: %v", err)

	// A view with the wrong columns is the same setup problem
	_, err = db.ExecContext(ctx, `
		CREATE VIEW menu_subjects AS
		SELECT 'page' AS subject_type, '1' AS subject_id
	`)
	require.NoError(t, err)
	_, err = store.AllNodes(ctx)
	assert.True(t, treemenu.IsNoSubjectsViewErr(err), "expected ErrNoSubjectsView for missing columns, got: %v", err)

	// With the real domain tables and view in place the same query works
	_, err = db.ExecContext(ctx, "DROP VIEW menu_subjects")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, testutil.PagesSQL())
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, testutil.SubjectsViewSQL())
	require.NoError(t, err)

	nodes, err := store.AllNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes, "schema complete but no menu loaded")
}
