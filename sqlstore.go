package treemenu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLStore reads the menu tree from PostgreSQL. The tree structure lives in
// the menu_nodes table (created by `treemenu migrate` and populated by
// `treemenu load`); display attributes come from the menu_subjects view the
// application provides over its own tables:
//
//	CREATE VIEW menu_subjects AS
//	SELECT 'page' AS subject_type, id::text AS subject_id, path AS url, title
//	FROM pages;
//
// Every query eagerly joins the subjects view and the parent row, so the
// returned nodes carry URL, Title and Parent without further lookups during
// template rendering.
//
// SQLStore holds no state beyond the database handle and is safe for
// concurrent use when the handle is (*sql.DB yes, *sql.Tx no).
type SQLStore struct {
	q Querier
}

// NewSQLStore creates a store over a *sql.DB, *sql.Tx, or *sql.Conn.
// Queries made through a transaction handle see the transaction's
// uncommitted changes, which makes load-then-verify flows work.
func NewSQLStore(q Querier) *SQLStore {
	return &SQLStore{q: q}
}

// nodeColumns is the select list shared by every query: the node, its
// subject attributes, and the eagerly joined parent row with its own
// attributes. Rows come back in canonical (tree_id, lft) order.
const nodeColumns = `
	n.id, n.tree_id, n.parent_id, n.depth, n.lft, n.rght,
	n.subject_type, n.subject_id,
	COALESCE(s.url, ''), COALESCE(s.title, ''),
	p.id, p.tree_id, p.parent_id, p.depth, p.lft, p.rght,
	p.subject_type, p.subject_id,
	COALESCE(ps.url, ''), COALESCE(ps.title, '')`

const nodeJoins = `
	FROM menu_nodes n
	LEFT JOIN menu_subjects s
		ON s.subject_type = n.subject_type AND s.subject_id = n.subject_id
	LEFT JOIN menu_nodes p ON p.id = n.parent_id
	LEFT JOIN menu_subjects ps
		ON ps.subject_type = p.subject_type AND ps.subject_id = p.subject_id`

func selectNodes(where string) string {
	q := "SELECT" + nodeColumns + nodeJoins
	if where != "" {
		q += "\n\tWHERE " + where
	}
	return q + "\n\tORDER BY n.tree_id, n.lft"
}

// scanNode reads one joined row. The parent columns are NULL for roots.
func scanNode(sc interface{ Scan(dest ...any) error }) (Node, error) {
	var (
		n        Node
		parentID sql.NullInt64

		pID, pTreeID, pParentID sql.NullInt64
		pDepth, pLeft, pRight   sql.NullInt64
		pSubjType, pSubjID      sql.NullString
		pURL, pTitle            sql.NullString
	)

	err := sc.Scan(
		&n.ID, &n.TreeID, &parentID, &n.Depth, &n.Left, &n.Right,
		&n.Subject.Type, &n.Subject.ID,
		&n.URL, &n.Title,
		&pID, &pTreeID, &pParentID, &pDepth, &pLeft, &pRight,
		&pSubjType, &pSubjID,
		&pURL, &pTitle,
	)
	if err != nil {
		return Node{}, err
	}

	if parentID.Valid {
		id := parentID.Int64
		n.ParentID = &id
	}
	if pID.Valid {
		parent := &Node{
			ID:      pID.Int64,
			TreeID:  pTreeID.Int64,
			Depth:   int(pDepth.Int64),
			Left:    int(pLeft.Int64),
			Right:   int(pRight.Int64),
			Subject: Subject{Type: SubjectType(pSubjType.String), ID: pSubjID.String},
			URL:     pURL.String,
			Title:   pTitle.String,
		}
		if pParentID.Valid {
			gid := pParentID.Int64
			parent.ParentID = &gid
		}
		n.Parent = parent
	}
	return n, nil
}

func (s *SQLStore) queryNodes(ctx context.Context, op, query string, args ...any) ([]Node, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError(op, err)
	}
	defer func() { _ = rows.Close() }()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// AllNodes returns every node of every tree.
func (s *SQLStore) AllNodes(ctx context.Context) ([]Node, error) {
	return s.queryNodes(ctx, "all nodes", selectNodes(""))
}

// RootNodes returns the depth-0 node of every tree.
func (s *SQLStore) RootNodes(ctx context.Context) ([]Node, error) {
	return s.queryNodes(ctx, "root nodes", selectNodes("n.depth = 0"))
}

// Branch returns the whole tree node belongs to: its root plus all of the
// root's descendants, including node itself.
func (s *SQLStore) Branch(ctx context.Context, node *Node) ([]Node, error) {
	return s.queryNodes(ctx, "branch", selectNodes("n.tree_id = $1"), node.TreeID)
}

// Children returns node's direct children only.
func (s *SQLStore) Children(ctx context.Context, node *Node) ([]Node, error) {
	return s.queryNodes(ctx, "children", selectNodes("n.parent_id = $1"), node.ID)
}

// Siblings returns the nodes sharing node's parent, including node itself.
// For a root node the siblings are the roots of every tree.
func (s *SQLStore) Siblings(ctx context.Context, node *Node) ([]Node, error) {
	if node.ParentID == nil {
		return s.queryNodes(ctx, "siblings", selectNodes("n.parent_id IS NULL"))
	}
	return s.queryNodes(ctx, "siblings", selectNodes("n.parent_id = $1"), *node.ParentID)
}

// Ancestors returns node's ancestors ordered root to parent; in nested sets
// those are the rows whose interval encloses node's.
func (s *SQLStore) Ancestors(ctx context.Context, node *Node) ([]Node, error) {
	return s.queryNodes(ctx, "ancestors",
		selectNodes("n.tree_id = $1 AND n.lft < $2 AND n.rght > $3"),
		node.TreeID, node.Left, node.Right)
}

// Descendants returns every node below node, excluding node itself.
func (s *SQLStore) Descendants(ctx context.Context, node *Node) ([]Node, error) {
	return s.queryNodes(ctx, "descendants",
		selectNodes("n.tree_id = $1 AND n.lft > $2 AND n.rght < $3"),
		node.TreeID, node.Left, node.Right)
}

// NodeByID returns the node with the given id, or ErrNodeNotFound.
func (s *SQLStore) NodeByID(ctx context.Context, id int64) (*Node, error) {
	row := s.q.QueryRowContext(ctx, selectNodes("n.id = $1"), id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: node id %d", ErrNodeNotFound, id)
	}
	if err != nil {
		return nil, mapStoreError("node by id", err)
	}
	return &n, nil
}

// NodeBySubject returns the single node mapped to subject. Zero matches
// yield ErrNodeNotFound; more than one yields ErrDuplicateNode (possible
// only when menu_nodes was populated outside the loader, which enforces
// the unique subject index).
func (s *SQLStore) NodeBySubject(ctx context.Context, subject Subject) (*Node, error) {
	nodes, err := s.queryNodes(ctx, "node by subject",
		selectNodes("n.subject_type = $1 AND n.subject_id = $2"),
		subject.Type, subject.ID)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, subject)
	case 1:
		return &nodes[0], nil
	default:
		return nil, fmt.Errorf("%w: %s has %d nodes", ErrDuplicateNode, subject, len(nodes))
	}
}

// NodeByPath returns the first node, in canonical order, whose subject URL
// equals path, or (nil, nil) when no node matches. PostgreSQL does the scan
// over the joined view; cost is linear in the menu size unless the
// application indexes its URL column.
func (s *SQLStore) NodeByPath(ctx context.Context, path string) (*Node, error) {
	nodes, err := s.queryNodes(ctx, "node by path", selectNodes("s.url = $1")+"\n\tLIMIT 1", path)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return &nodes[0], nil
}

// mapStoreError maps PostgreSQL errors to sentinel errors so applications
// can give actionable setup messages. Uses interface-based SQLSTATE
// detection to work with any PostgreSQL driver (pq, pgx).
func mapStoreError(operation string, err error) error {
	switch sqlState(err) {
	case pgUndefinedTable:
		errStr := err.Error()
		if strings.Contains(errStr, "menu_subjects") {
			return fmt.Errorf("%w: %v", ErrNoSubjectsView, err)
		}
		if strings.Contains(errStr, "menu_nodes") {
			return fmt.Errorf("%w: %v", ErrNoNodesTable, err)
		}
	case pgUndefinedColumn:
		// The menu_subjects view exists but doesn't match the column
		// contract (subject_type, subject_id, url, title).
		if strings.Contains(err.Error(), "menu_subjects") ||
			strings.Contains(err.Error(), "url") ||
			strings.Contains(err.Error(), "title") {
			return fmt.Errorf("%w: %v", ErrNoSubjectsView, err)
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// sqlState extracts the SQLSTATE code from a PostgreSQL error.
// Works with multiple drivers via interface detection:
//   - pgx/pgconn: SQLState() string
//   - lib/pq: Code field (via error interface)
//
// Returns empty string if the error doesn't contain a SQLSTATE.
func sqlState(err error) string {
	// Try SQLState() method (pgx/pgconn, and some pq versions)
	type sqlStateErr interface{ SQLState() string }
	if e, ok := err.(sqlStateErr); ok {
		return e.SQLState()
	}

	// Try Code() method (some error wrappers)
	type codeErr interface{ Code() string }
	if e, ok := err.(codeErr); ok {
		return e.Code()
	}

	// Fallback: string matching for known patterns (last resort)
	errStr := err.Error()
	if strings.Contains(errStr, "SQLSTATE") {
		// Try to extract SQLSTATE from error message
		// Format: "... (SQLSTATE 42P01)" or "SQLSTATE: 42P01"
		for _, prefix := range []string{"SQLSTATE ", "SQLSTATE: "} {
			if idx := strings.Index(errStr, prefix); idx >= 0 {
				start := idx + len(prefix)
				if start+5 <= len(errStr) {
					return errStr[start : start+5]
				}
			}
		}
	}

	return ""
}

// Ensure SQLStore satisfies Store.
var _ Store = (*SQLStore)(nil)
