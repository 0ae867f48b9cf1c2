package testutil

import (
	"context"
	"database/sql"
)

// Fixtures provides factory functions for creating individual rows in the
// application tables and in menu_nodes. Integration tests use these to set
// up scenarios the YAML fixture can't express, such as deliberately broken
// trees for doctor checks.
type Fixtures struct {
	db  *sql.DB
	ctx context.Context
}

// NewFixtures creates a new Fixtures instance.
func NewFixtures(ctx context.Context, db *sql.DB) *Fixtures {
	return &Fixtures{db: db, ctx: ctx}
}

// CreatePage creates a single page and returns its ID.
func (f *Fixtures) CreatePage(path, title string) (int64, error) {
	var id int64
	err := f.db.QueryRowContext(f.ctx,
		`INSERT INTO pages (path, title) VALUES ($1, $2) RETURNING id`,
		path, title,
	).Scan(&id)
	return id, err
}

// CreateCategory creates a single category and returns its ID.
func (f *Fixtures) CreateCategory(path, name string) (int64, error) {
	var id int64
	err := f.db.QueryRowContext(f.ctx,
		`INSERT INTO categories (path, name) VALUES ($1, $2) RETURNING id`,
		path, name,
	).Scan(&id)
	return id, err
}

// InsertNode inserts a raw menu_nodes row, bypassing the menu builder.
// Pass nil parentID for a root. The caller is responsible for keeping
// the nested set consistent (or deliberately not, for doctor tests).
func (f *Fixtures) InsertNode(treeID int64, parentID *int64, depth, lft, rght int, subjectType, subjectID string) (int64, error) {
	var id int64
	err := f.db.QueryRowContext(f.ctx, `
		INSERT INTO menu_nodes (tree_id, parent_id, depth, lft, rght, subject_type, subject_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		treeID, parentID, depth, lft, rght, subjectType, subjectID,
	).Scan(&id)
	return id, err
}

// DropSubjectIndex drops the unique (subject_type, subject_id) index so a
// test can insert duplicate subjects and watch doctor flag them.
func (f *Fixtures) DropSubjectIndex() error {
	_, err := f.db.ExecContext(f.ctx, "DROP INDEX IF EXISTS idx_menu_nodes_subject")
	return err
}
