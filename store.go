package treemenu

import "context"

// Store provides read access to a menu tree. The Resolver and the built-in
// strategies consume it; SQLStore and MemStore implement it.
//
// All sequence-returning methods yield nodes in canonical (TreeID, Left)
// order with Parent and Subject populated. Traversal methods taking a node
// operate on the tree that node belongs to.
//
// Lookup failure semantics differ by intent: NodeByID and NodeBySubject
// return ErrNodeNotFound when nothing matches (the caller asserted the node
// exists), while NodeByPath returns (nil, nil) on no match (path matching is
// best-effort detection, absence is normal).
type Store interface {
	// AllNodes returns every node of every tree.
	AllNodes(ctx context.Context) ([]Node, error)

	// RootNodes returns the depth-0 node of every tree.
	RootNodes(ctx context.Context) ([]Node, error)

	// Branch returns the root of node's tree and all of that root's
	// descendants, including the root and node itself.
	Branch(ctx context.Context, node *Node) ([]Node, error)

	// Children returns node's direct children only.
	Children(ctx context.Context, node *Node) ([]Node, error)

	// Siblings returns the nodes sharing node's parent, including node
	// itself. For a root node that is every root.
	Siblings(ctx context.Context, node *Node) ([]Node, error)

	// Ancestors returns node's ancestors ordered root to parent,
	// excluding node itself.
	Ancestors(ctx context.Context, node *Node) ([]Node, error)

	// Descendants returns every node below node, excluding node itself.
	Descendants(ctx context.Context, node *Node) ([]Node, error)

	// NodeByID returns the node with the given id.
	// Returns ErrNodeNotFound when the id doesn't exist.
	NodeByID(ctx context.Context, id int64) (*Node, error)

	// NodeBySubject returns the single node mapped to subject.
	// Returns ErrNodeNotFound when no node matches and ErrDuplicateNode
	// when more than one does.
	NodeBySubject(ctx context.Context, subject Subject) (*Node, error)

	// NodeByPath returns the first node, in canonical order, whose subject
	// URL equals path, or (nil, nil) when no node matches. The linear cost
	// and the first-match tie-break are documented behavior; `treemenu
	// doctor` warns about duplicate URLs.
	NodeByPath(ctx context.Context, path string) (*Node, error)
}
