package treemenu_test

import (
	"context"
	"testing"

	"github.com/pthm/treemenu"
)

// newTestStore builds a MemStore over the fixture menu:
//
//	tree 1: page:1 /          tree 2: category:1 /support
//	          page:2 /products          page:5 /support/faq
//	            page:4 /products/widgets
//	          page:3 /about
//
// Node ids are assigned depth-first: 1..4 in tree 1, 5..6 in tree 2.
func newTestStore(t *testing.T) *treemenu.MemStore {
	t.Helper()
	menu, err := treemenu.ParseMenu([]byte(fixtureYAML))
	if err != nil {
		t.Fatal(err)
	}
	store, err := treemenu.NewMemStoreFromMenu(menu)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func nodeIDs(nodes []treemenu.Node) []int64 {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func sameIDs(got []treemenu.Node, want ...int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i, n := range got {
		if n.ID != want[i] {
			return false
		}
	}
	return true
}

// mustNode fetches a node by id, failing the test on error.
func mustNode(t *testing.T, store treemenu.Store, id int64) *treemenu.Node {
	t.Helper()
	n, err := store.NodeByID(context.Background(), id)
	if err != nil {
		t.Fatalf("NodeByID(%d): %v", id, err)
	}
	return n
}

func TestMemStore_AllNodes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	nodes, err := store.AllNodes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 1, 2, 3, 4, 5, 6) {
		t.Fatalf("expected canonical order [1 2 3 4 5 6], got %v", nodeIDs(nodes))
	}

	// Display attributes come from the definition
	if nodes[0].URL != "/" || nodes[0].Title != "Home" {
		t.Errorf("node 1: (url,title) = (%q,%q), want (/, Home)", nodes[0].URL, nodes[0].Title)
	}

	// Parent references are wired eagerly
	if nodes[0].Parent != nil {
		t.Error("root node should have nil Parent")
	}
	widgets := nodes[2]
	if widgets.Parent == nil {
		t.Fatal("widgets should have a Parent")
	}
	if widgets.Parent.ID != 2 || widgets.Parent.URL != "/products" {
		t.Errorf("widgets parent = %+v, want node 2 (/products)", widgets.Parent)
	}
}

func TestMemStore_RootNodes(t *testing.T) {
	store := newTestStore(t)
	nodes, err := store.RootNodes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 1, 5) {
		t.Errorf("expected roots [1 5], got %v", nodeIDs(nodes))
	}
}

func TestMemStore_Branch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Branch from a leaf covers the whole tree, including the root
	nodes, err := store.Branch(ctx, mustNode(t, store, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 1, 2, 3, 4) {
		t.Errorf("branch of node 3: expected [1 2 3 4], got %v", nodeIDs(nodes))
	}

	// Other trees are excluded
	nodes, err = store.Branch(ctx, mustNode(t, store, 6))
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 5, 6) {
		t.Errorf("branch of node 6: expected [5 6], got %v", nodeIDs(nodes))
	}
}

func TestMemStore_Children(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	nodes, err := store.Children(ctx, mustNode(t, store, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 2, 4) {
		t.Errorf("children of node 1: expected [2 4], got %v", nodeIDs(nodes))
	}

	// A leaf has no children
	nodes, err = store.Children(ctx, mustNode(t, store, 3))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Errorf("children of leaf: expected none, got %v", nodeIDs(nodes))
	}
}

func TestMemStore_Siblings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Siblings include the node itself
	nodes, err := store.Siblings(ctx, mustNode(t, store, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 2, 4) {
		t.Errorf("siblings of node 2: expected [2 4], got %v", nodeIDs(nodes))
	}

	// For a root the siblings are the roots of every tree
	nodes, err = store.Siblings(ctx, mustNode(t, store, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 1, 5) {
		t.Errorf("siblings of root: expected [1 5], got %v", nodeIDs(nodes))
	}
}

func TestMemStore_Ancestors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Root-to-parent order, excluding the node itself
	nodes, err := store.Ancestors(ctx, mustNode(t, store, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 1, 2) {
		t.Errorf("ancestors of node 3: expected [1 2], got %v", nodeIDs(nodes))
	}

	nodes, err = store.Ancestors(ctx, mustNode(t, store, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Errorf("ancestors of root: expected none, got %v", nodeIDs(nodes))
	}
}

func TestMemStore_Descendants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	nodes, err := store.Descendants(ctx, mustNode(t, store, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 2, 3, 4) {
		t.Errorf("descendants of node 1: expected [2 3 4], got %v", nodeIDs(nodes))
	}

	nodes, err = store.Descendants(ctx, mustNode(t, store, 3))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Errorf("descendants of leaf: expected none, got %v", nodeIDs(nodes))
	}
}

func TestMemStore_NodeByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.NodeByID(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if n.Subject.String() != "page:4" || n.URL != "/products/widgets" {
		t.Errorf("unexpected node: %+v", n)
	}

	_, err = store.NodeByID(ctx, 999)
	if !treemenu.IsNodeNotFoundErr(err) {
		t.Errorf("expected IsNodeNotFoundErr for unknown id, got: %v", err)
	}
}

func TestMemStore_NodeBySubject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.NodeBySubject(ctx, treemenu.Subject{Type: "page", ID: "2"})
	if err != nil {
		t.Fatal(err)
	}
	if n.ID != 2 {
		t.Errorf("expected node 2, got %d", n.ID)
	}

	_, err = store.NodeBySubject(ctx, treemenu.Subject{Type: "page", ID: "99"})
	if !treemenu.IsNodeNotFoundErr(err) {
		t.Errorf("expected IsNodeNotFoundErr for unknown subject, got: %v", err)
	}
}

func TestMemStore_NodeBySubject_Duplicate(t *testing.T) {
	// Hand-built nodes can violate the one-node-per-subject contract;
	// lookup must report it rather than pick one silently.
	store := treemenu.NewMemStore([]treemenu.Node{
		{ID: 1, TreeID: 1, Depth: 0, Left: 1, Right: 2, Subject: treemenu.Subject{Type: "page", ID: "1"}},
		{ID: 2, TreeID: 2, Depth: 0, Left: 1, Right: 2, Subject: treemenu.Subject{Type: "page", ID: "1"}},
	})

	_, err := store.NodeBySubject(context.Background(), treemenu.Subject{Type: "page", ID: "1"})
	if !treemenu.IsDuplicateNodeErr(err) {
		t.Errorf("expected IsDuplicateNodeErr, got: %v", err)
	}
}

func TestMemStore_NodeByPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.NodeByPath(ctx, "/about")
	if err != nil {
		t.Fatal(err)
	}
	if n == nil || n.ID != 4 {
		t.Fatalf("expected node 4 for /about, got %+v", n)
	}

	// No match is not an error
	n, err = store.NodeByPath(ctx, "/not-in-menu")
	if err != nil {
		t.Fatal(err)
	}
	if n != nil {
		t.Errorf("expected nil for unmatched path, got node %d", n.ID)
	}
}

func TestMemStore_NodeByPath_FirstMatchWins(t *testing.T) {
	// Two nodes share a URL; the first in (TreeID, Left) order wins.
	store := treemenu.NewMemStore([]treemenu.Node{
		{ID: 10, TreeID: 2, Depth: 0, Left: 1, Right: 2, Subject: treemenu.Subject{Type: "page", ID: "b"}, URL: "/dup"},
		{ID: 20, TreeID: 1, Depth: 0, Left: 1, Right: 2, Subject: treemenu.Subject{Type: "page", ID: "a"}, URL: "/dup"},
	})

	n, err := store.NodeByPath(context.Background(), "/dup")
	if err != nil {
		t.Fatal(err)
	}
	if n == nil || n.ID != 20 {
		t.Fatalf("expected node 20 (tree 1) to win, got %+v", n)
	}
}

func TestMemStore_UnsortedInput(t *testing.T) {
	// NewMemStore sorts into canonical order regardless of input order.
	parent := int64(1)
	store := treemenu.NewMemStore([]treemenu.Node{
		{ID: 2, TreeID: 1, ParentID: &parent, Depth: 1, Left: 2, Right: 3, Subject: treemenu.Subject{Type: "page", ID: "2"}},
		{ID: 3, TreeID: 2, Depth: 0, Left: 1, Right: 2, Subject: treemenu.Subject{Type: "page", ID: "3"}},
		{ID: 1, TreeID: 1, Depth: 0, Left: 1, Right: 4, Subject: treemenu.Subject{Type: "page", ID: "1"}},
	})

	nodes, err := store.AllNodes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(nodes, 1, 2, 3) {
		t.Errorf("expected canonical order [1 2 3], got %v", nodeIDs(nodes))
	}
	if nodes[1].Parent == nil || nodes[1].Parent.ID != 1 {
		t.Error("parent reference should be wired from ParentID")
	}
	if store.Len() != 3 {
		t.Errorf("Len = %d, want 3", store.Len())
	}
}
