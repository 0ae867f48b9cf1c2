// Package treemenu resolves which nodes of a hierarchical menu tree should
// be rendered for the page currently being displayed.
//
// # Core Concepts
//
// Every menu node points at a subject: the application entity the menu entry
// represents (a page, a category, a product). Subjects are identified by a
// (type, id) pair:
//
//	page := treemenu.Subject{Type: "page", ID: "42"}
//
// A resolution pass takes the rendering context (an explicit subject, a
// context-supplied subject, or a request whose URL path is matched against
// the menu), finds the tree node for the current subject, and selects the
// nodes to display through a Strategy.
//
// # Basic Usage
//
//	store := treemenu.NewSQLStore(db)
//	r := treemenu.NewResolver(store, treemenu.RenderContext{Request: req},
//		treemenu.WithStrategy(treemenu.StrategyRootsAndBranch))
//	nodes, err := r.GetNodes(ctx)
//
// # Stores
//
// Two Store implementations ship with the package: SQLStore queries a
// PostgreSQL menu_nodes table (created by `treemenu migrate`) joined to an
// application-provided menu_subjects view, and MemStore serves a menu
// definition entirely from memory.
//
// SQLStore works with *sql.DB, *sql.Tx, or *sql.Conn, so menu queries made
// inside a transaction see uncommitted changes:
//
//	tx, _ := db.BeginTx(ctx, nil)
//	store := treemenu.NewSQLStore(tx)
//
// # Resolution and Caching
//
// A Resolver is request-scoped: construct one per rendering pass and discard
// it afterwards. Results are memoized for the duration of the pass, keyed by
// the resolved subject, so templates can ask for the menu repeatedly without
// re-querying. Use WithCache(NewSharedCache(...)) to share results across
// passes when the menu is static.
//
// # Menu Definitions
//
// Menus are described in YAML, validated, and either loaded into PostgreSQL
// with a Migrator or served directly through a MemStore:
//
//	items:
//	  - subject: page:home
//	    url: /
//	    children:
//	      - subject: page:about
//	        url: /about
//
// # Schema Management
//
// The treemenu CLI creates the menu_nodes table and loads menu definitions:
//
//	treemenu migrate
//	treemenu load menu.yaml
package treemenu

import (
	"context"
	"database/sql"
)

// MaxDepth is the default upper bound of the depth window applied to
// resolved node sequences. Menus deeper than this are rejected by
// Menu.Validate.
const MaxDepth = 64

// SubjectType represents the type of a subject.
type SubjectType string

// String returns the string representation of the subject type.
func (st SubjectType) String() string {
	return string(st)
}

// Subject identifies the application entity a menu node represents.
// Exactly one node exists per subject under normal operation; the loader
// and the doctor command both enforce this.
//
// Subjects are value types and safe to copy and to use as map keys. The
// canonical string format is "type:id", used in menu definitions, logging
// and debugging. The zero Subject marks "no subject resolved".
type Subject struct {
	Type SubjectType
	ID   string
}

// String returns the canonical representation "type:id".
func (s Subject) String() string {
	return s.Type.String() + ":" + s.ID
}

// IsZero reports whether the subject is the zero value, i.e. no subject.
func (s Subject) IsZero() bool {
	return s.Type == "" && s.ID == ""
}

// MenuSubject returns the subject itself, implementing SubjectLike.
// This allows Subject values to be passed anywhere a domain model is
// accepted.
func (s Subject) MenuSubject() Subject {
	return s
}

// SubjectLike defines an interface for types that can appear in a menu.
// Domain models implement it to be resolvable without importing the
// application layer into treemenu.
//
// Example:
//
//	type Page struct { ID int64; Slug string }
//	func (p Page) MenuSubject() treemenu.Subject {
//	    return treemenu.Subject{Type: "page", ID: fmt.Sprint(p.ID)}
//	}
//
// The Resolver accepts SubjectLike rather than Subject directly, enabling
// menu resolution against domain models.
type SubjectLike interface {
	MenuSubject() Subject
}

// NodeLinked marks subjects that carry a direct reference to their menu
// node. When a subject implements it, the Resolver fetches the node by id
// instead of looking it up by (type, id). The application must keep the
// reference 1:1 with the node table; a dangling id surfaces as
// ErrNodeNotFound.
type NodeLinked interface {
	SubjectLike
	MenuNodeID() int64
}

// Node is one entry of a menu tree.
//
// Nodes are stored as nested sets: within a tree, Left and Right bound the
// node's subtree, and Depth is the distance from the root. The canonical
// traversal order of any node sequence returned by this package is
// (TreeID, Left) ascending, which visits each tree depth-first.
//
// Parent and Subject are populated eagerly by the stores so templates can
// render indentation and links without further lookups. Parent is nil for
// roots; for non-roots it references a node outside the returned slice when
// the parent falls outside the selection.
type Node struct {
	ID       int64
	TreeID   int64
	ParentID *int64
	Depth    int
	Left     int
	Right    int
	Subject  Subject
	URL      string
	Title    string
	Parent   *Node
}

// IsRoot reports whether the node is the root of its tree.
func (n Node) IsRoot() bool {
	return n.ParentID == nil
}

// Querier executes queries against PostgreSQL.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
//
// The minimal interface allows SQLStore to work in transaction contexts
// without requiring a full database connection. Menu lookups inside a
// transaction see rows the transaction inserted:
//
//	tx.Exec("INSERT INTO menu_nodes ...")
//	store := treemenu.NewSQLStore(tx)
//	// the new node is visible to this store
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer extends Querier with ExecContext for schema and data migrations.
// Only required by the Migrator and the CLI, not for menu resolution.
// Separating this interface keeps the read path dependency minimal.
type Execer interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
