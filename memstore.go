package treemenu

import (
	"context"
	"sort"
)

// MemStore serves a menu tree entirely from memory. It is built once from a
// slice of nodes (typically the output of Menu.BuildNodes) and is afterwards
// read-only and safe for concurrent use.
//
// Use it for menus that live in a config file rather than the database, or
// as a lightweight Store in tests:
//
//	menu, _ := treemenu.ParseMenuFile("menu.yaml")
//	store, _ := treemenu.NewMemStoreFromMenu(menu)
//	r := treemenu.NewResolver(store, rctx)
//
// URL and Title come straight from the menu definition; there is no
// menu_subjects view to consult.
type MemStore struct {
	nodes     []Node
	byID      map[int64]int
	bySubject map[Subject][]int
}

// NewMemStore creates a store over the given nodes. The nodes are copied,
// sorted into canonical (TreeID, Left) order, and their Parent references
// wired up from ParentID. Input order does not matter.
func NewMemStore(nodes []Node) *MemStore {
	s := &MemStore{
		nodes:     make([]Node, len(nodes)),
		byID:      make(map[int64]int, len(nodes)),
		bySubject: make(map[Subject][]int, len(nodes)),
	}
	copy(s.nodes, nodes)
	sort.Slice(s.nodes, func(i, j int) bool {
		if s.nodes[i].TreeID != s.nodes[j].TreeID {
			return s.nodes[i].TreeID < s.nodes[j].TreeID
		}
		return s.nodes[i].Left < s.nodes[j].Left
	})

	for i := range s.nodes {
		s.byID[s.nodes[i].ID] = i
		s.bySubject[s.nodes[i].Subject] = append(s.bySubject[s.nodes[i].Subject], i)
	}
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.ParentID != nil {
			if pi, ok := s.byID[*n.ParentID]; ok {
				n.Parent = &s.nodes[pi]
			}
		}
	}
	return s
}

// NewMemStoreFromMenu validates the menu definition, builds its node tree,
// and returns a store serving it.
func NewMemStoreFromMenu(menu *Menu) (*MemStore, error) {
	nodes, err := menu.BuildNodes()
	if err != nil {
		return nil, err
	}
	return NewMemStore(nodes), nil
}

// Len returns the total number of nodes in the store.
func (s *MemStore) Len() int {
	return len(s.nodes)
}

// collect copies the nodes matching keep, preserving canonical order.
func (s *MemStore) collect(keep func(n *Node) bool) []Node {
	var out []Node
	for i := range s.nodes {
		if keep(&s.nodes[i]) {
			out = append(out, s.nodes[i])
		}
	}
	return out
}

// AllNodes returns every node of every tree.
func (s *MemStore) AllNodes(_ context.Context) ([]Node, error) {
	return s.collect(func(*Node) bool { return true }), nil
}

// RootNodes returns the depth-0 node of every tree.
func (s *MemStore) RootNodes(_ context.Context) ([]Node, error) {
	return s.collect(func(n *Node) bool { return n.Depth == 0 }), nil
}

// Branch returns the whole tree node belongs to. In nested sets the root's
// interval spans the tree, so the branch is simply every node sharing the
// tree id.
func (s *MemStore) Branch(_ context.Context, node *Node) ([]Node, error) {
	return s.collect(func(n *Node) bool { return n.TreeID == node.TreeID }), nil
}

// Children returns node's direct children only.
func (s *MemStore) Children(_ context.Context, node *Node) ([]Node, error) {
	return s.collect(func(n *Node) bool {
		return n.ParentID != nil && *n.ParentID == node.ID
	}), nil
}

// Siblings returns the nodes sharing node's parent, including node itself.
// For a root node the siblings are the roots of every tree.
func (s *MemStore) Siblings(_ context.Context, node *Node) ([]Node, error) {
	if node.ParentID == nil {
		return s.collect(func(n *Node) bool { return n.ParentID == nil }), nil
	}
	return s.collect(func(n *Node) bool {
		return n.ParentID != nil && *n.ParentID == *node.ParentID
	}), nil
}

// Ancestors returns node's ancestors ordered root to parent. Within one tree
// the ancestors are exactly the nodes whose interval encloses node's, and
// canonical order already sorts them root-first.
func (s *MemStore) Ancestors(_ context.Context, node *Node) ([]Node, error) {
	return s.collect(func(n *Node) bool {
		return n.TreeID == node.TreeID && n.Left < node.Left && n.Right > node.Right
	}), nil
}

// Descendants returns every node below node, excluding node itself.
func (s *MemStore) Descendants(_ context.Context, node *Node) ([]Node, error) {
	return s.collect(func(n *Node) bool {
		return n.TreeID == node.TreeID && n.Left > node.Left && n.Right < node.Right
	}), nil
}

// NodeByID returns the node with the given id, or ErrNodeNotFound.
func (s *MemStore) NodeByID(_ context.Context, id int64) (*Node, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	n := s.nodes[i]
	return &n, nil
}

// NodeBySubject returns the single node mapped to subject. Zero matches
// yield ErrNodeNotFound; more than one yields ErrDuplicateNode.
func (s *MemStore) NodeBySubject(_ context.Context, subject Subject) (*Node, error) {
	idx := s.bySubject[subject]
	switch len(idx) {
	case 0:
		return nil, ErrNodeNotFound
	case 1:
		n := s.nodes[idx[0]]
		return &n, nil
	default:
		return nil, ErrDuplicateNode
	}
}

// NodeByPath scans the nodes in canonical order and returns the first whose
// URL equals path, or (nil, nil) when none matches.
func (s *MemStore) NodeByPath(_ context.Context, path string) (*Node, error) {
	for i := range s.nodes {
		if s.nodes[i].URL == path {
			n := s.nodes[i]
			return &n, nil
		}
	}
	return nil, nil
}

// Ensure MemStore satisfies Store.
var _ Store = (*MemStore)(nil)
