package treemenu

import (
	"context"
	"sort"
)

// Strategy selects the candidate nodes a menu should display, before the
// depth window is applied. current is the node resolved for the current
// subject and is nil when resolution found none.
//
// Strategies that cannot work without a current node return
// ErrNoCurrentNode; GetNodes recovers from exactly that error by
// substituting the resolver's fallback strategy. Every other error
// propagates to the caller.
//
// Custom strategies compose Store traversals; use MergeTreeOrder to union
// sequences while keeping canonical order.
type Strategy interface {
	SelectNodes(ctx context.Context, store Store, current *Node) ([]Node, error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(ctx context.Context, store Store, current *Node) ([]Node, error)

// SelectNodes calls f.
func (f StrategyFunc) SelectNodes(ctx context.Context, store Store, current *Node) ([]Node, error) {
	return f(ctx, store, current)
}

// Built-in strategies. StrategyAll is the default for both selection and
// fallback. The strategies below StrategyRoots require a resolved current
// node. Note that children means direct children only, one level down.
var (
	// StrategyAll selects every node of every tree.
	StrategyAll Strategy = StrategyFunc(selectAll)

	// StrategyRoots selects the root node of every tree.
	StrategyRoots Strategy = StrategyFunc(selectRoots)

	// StrategyBranch selects the current node's whole tree: its root plus
	// all of the root's descendants, including the current node.
	StrategyBranch Strategy = StrategyFunc(selectBranch)

	// StrategyRootsAndBranch selects every root plus the current branch.
	StrategyRootsAndBranch Strategy = StrategyFunc(selectRootsAndBranch)

	// StrategyRootsAndSiblings selects every root plus the nodes sharing
	// the current node's parent.
	StrategyRootsAndSiblings Strategy = StrategyFunc(selectRootsAndSiblings)

	// StrategyRootsAndChildren selects every root plus the current node's
	// direct children.
	StrategyRootsAndChildren Strategy = StrategyFunc(selectRootsAndChildren)

	// StrategyChildren selects the current node's direct children only.
	StrategyChildren Strategy = StrategyFunc(selectChildren)

	// StrategyAncestors selects the current node's ancestors, root first.
	StrategyAncestors Strategy = StrategyFunc(selectAncestors)

	// StrategyDescendants selects everything below the current node,
	// excluding the node itself.
	StrategyDescendants Strategy = StrategyFunc(selectDescendants)
)

func selectAll(ctx context.Context, store Store, _ *Node) ([]Node, error) {
	return store.AllNodes(ctx)
}

func selectRoots(ctx context.Context, store Store, _ *Node) ([]Node, error) {
	return store.RootNodes(ctx)
}

func selectBranch(ctx context.Context, store Store, current *Node) ([]Node, error) {
	if current == nil {
		return nil, ErrNoCurrentNode
	}
	return store.Branch(ctx, current)
}

func selectRootsAndBranch(ctx context.Context, store Store, current *Node) ([]Node, error) {
	if current == nil {
		return nil, ErrNoCurrentNode
	}
	roots, err := store.RootNodes(ctx)
	if err != nil {
		return nil, err
	}
	branch, err := store.Branch(ctx, current)
	if err != nil {
		return nil, err
	}
	return MergeTreeOrder(roots, branch), nil
}

func selectRootsAndSiblings(ctx context.Context, store Store, current *Node) ([]Node, error) {
	if current == nil {
		return nil, ErrNoCurrentNode
	}
	roots, err := store.RootNodes(ctx)
	if err != nil {
		return nil, err
	}
	siblings, err := store.Siblings(ctx, current)
	if err != nil {
		return nil, err
	}
	return MergeTreeOrder(roots, siblings), nil
}

func selectRootsAndChildren(ctx context.Context, store Store, current *Node) ([]Node, error) {
	if current == nil {
		return nil, ErrNoCurrentNode
	}
	roots, err := store.RootNodes(ctx)
	if err != nil {
		return nil, err
	}
	children, err := store.Children(ctx, current)
	if err != nil {
		return nil, err
	}
	return MergeTreeOrder(roots, children), nil
}

func selectChildren(ctx context.Context, store Store, current *Node) ([]Node, error) {
	if current == nil {
		return nil, ErrNoCurrentNode
	}
	return store.Children(ctx, current)
}

func selectAncestors(ctx context.Context, store Store, current *Node) ([]Node, error) {
	if current == nil {
		return nil, ErrNoCurrentNode
	}
	return store.Ancestors(ctx, current)
}

func selectDescendants(ctx context.Context, store Store, current *Node) ([]Node, error) {
	if current == nil {
		return nil, ErrNoCurrentNode
	}
	return store.Descendants(ctx, current)
}

// MergeTreeOrder unions node sequences, removing duplicates by id and
// restoring canonical (TreeID, Left) order. Built-in composite strategies
// use it to combine Store traversals the way a single filtered query would.
func MergeTreeOrder(groups ...[]Node) []Node {
	seen := make(map[int64]struct{})
	var out []Node
	for _, group := range groups {
		for _, n := range group {
			if _, ok := seen[n.ID]; ok {
				continue
			}
			seen[n.ID] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TreeID != out[j].TreeID {
			return out[i].TreeID < out[j].TreeID
		}
		return out[i].Left < out[j].Left
	})
	return out
}
