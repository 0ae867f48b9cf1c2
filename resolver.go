package treemenu

import (
	"context"
	"errors"
)

// Resolver performs one menu resolution pass: determine the current
// subject, find its node, select nodes through a strategy, filter by the
// depth window, and memoize the result.
//
// Resolvers are request-scoped. Construct one per rendering pass with the
// pass's RenderContext and discard it afterwards; the default cache is an
// unsynchronized map tied to the resolver's lifetime. A Resolver holds no
// other state beyond the store handle and its options, so construction is
// cheap.
//
// The store handle is explicit. Nothing in this package reaches for a
// global registry; whatever Store the resolver is given is the tree it
// resolves against, which also makes transactional stores work naturally.
type Resolver struct {
	store Store
	rctx  RenderContext

	levelMin   int
	levelMax   int
	override   SubjectLike
	overridden bool
	strategy   Strategy
	fallback   Strategy
	cache      Cache

	// resolution state, memoized for the lifetime of the resolver
	determined  bool
	subjectLike SubjectLike
	subject     Subject
	node        *Node
	nodeDone    bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSubject supplies the current subject explicitly, skipping context
// detection entirely. Prefer this whenever the caller already knows the
// displayed entity; it saves the path-matching scan.
//
// WithSubject(nil) is meaningful: it pins the pass to "no subject", so
// GetNodes returns the fallback selection without attempting detection.
func WithSubject(subject SubjectLike) Option {
	return func(r *Resolver) {
		r.override = subject
		r.overridden = true
	}
}

// WithDepthWindow bounds the depth of returned nodes to [lo, hi],
// inclusive. The default window is [0, MaxDepth].
func WithDepthWindow(lo, hi int) Option {
	return func(r *Resolver) {
		r.levelMin = lo
		r.levelMax = hi
	}
}

// WithStrategy selects the node-selection strategy. The default is
// StrategyAll, the whole tree.
func WithStrategy(s Strategy) Option {
	return func(r *Resolver) {
		r.strategy = s
	}
}

// WithFallback selects the strategy used when the configured strategy
// reports ErrNoCurrentNode, i.e. for pages that aren't in the menu.
// The default is StrategyAll. A fallback that itself requires a current
// node makes GetNodes return ErrNoCurrentNode to the caller.
func WithFallback(s Strategy) Option {
	return func(r *Resolver) {
		r.fallback = s
	}
}

// WithCache replaces the per-pass cache, typically with a SharedCache so
// resolved sequences survive across requests.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// NewResolver creates a resolver for one rendering pass against the given
// store.
func NewResolver(store Store, rctx RenderContext, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		rctx:     rctx,
		levelMin: 0,
		levelMax: MaxDepth,
		strategy: StrategyAll,
		fallback: StrategyAll,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = make(passCache)
	}
	return r
}

// GetNodes returns the nodes the menu should display for the current pass.
//
// The first call determines the subject, resolves its node, runs the
// strategy (falling back once when the strategy reports ErrNoCurrentNode)
// and applies the depth window; the result is cached under the resolved
// subject, so repeated calls on the same resolver return the identical
// slice without touching the store.
//
// Failure semantics: a page that is simply absent from the menu never
// errors (the fallback selection is returned); ErrNodeNotFound and
// ErrDuplicateNode propagate because they mean the backing data violates
// the one-node-per-subject contract.
func (r *Resolver) GetNodes(ctx context.Context) ([]Node, error) {
	if err := r.determine(ctx); err != nil {
		return nil, err
	}

	if nodes, ok := r.cache.Get(r.subject); ok {
		return nodes, nil
	}

	if err := r.resolve(ctx); err != nil {
		return nil, err
	}

	nodes, err := r.strategy.SelectNodes(ctx, r.store, r.node)
	if errors.Is(err, ErrNoCurrentNode) {
		nodes, err = r.fallback.SelectNodes(ctx, r.store, r.node)
	}
	if err != nil {
		return nil, err
	}

	nodes = filterDepth(nodes, r.levelMin, r.levelMax)
	r.cache.Set(r.subject, nodes)
	return nodes, nil
}

// Current resolves and returns the node for the current subject, or
// (nil, nil) when the pass has no subject or no node. Lookup and
// data-integrity errors are the same as for GetNodes.
func (r *Resolver) Current(ctx context.Context) (*Node, error) {
	if err := r.determine(ctx); err != nil {
		return nil, err
	}
	if err := r.resolve(ctx); err != nil {
		return nil, err
	}
	return r.node, nil
}

// determine establishes the current subject once per resolver.
//
// Precedence: explicit override (even a nil one), then the context-supplied
// subject, then URL path matching. Path matching that finds a node also
// resolves the node in the same step. An unobtainable path or an unmatched
// one leaves the subject unresolved without error; store errors during the
// scan propagate.
func (r *Resolver) determine(ctx context.Context) error {
	if r.determined {
		return nil
	}

	switch {
	case r.overridden:
		r.subjectLike = r.override
	case r.rctx.Subject != nil:
		r.subjectLike = r.rctx.Subject
	default:
		path, ok := r.rctx.Path()
		if !ok {
			break
		}
		node, err := r.store.NodeByPath(ctx, path)
		if err != nil {
			return err
		}
		if node != nil {
			r.node = node
			r.nodeDone = true
			r.subject = node.Subject
		}
	}

	if r.subjectLike != nil {
		r.subject = r.subjectLike.MenuSubject()
	}
	r.determined = true
	return nil
}

// resolve maps the determined subject to its node once per resolver.
// Subjects carrying a direct node reference are fetched by id; everything
// else goes through the (type, id) lookup. No subject means no node, which
// is not an error.
func (r *Resolver) resolve(ctx context.Context) error {
	if r.nodeDone {
		return nil
	}
	if r.subjectLike == nil {
		r.nodeDone = true
		return nil
	}

	var (
		node *Node
		err  error
	)
	if linked, ok := r.subjectLike.(NodeLinked); ok {
		node, err = r.store.NodeByID(ctx, linked.MenuNodeID())
	} else {
		node, err = r.store.NodeBySubject(ctx, r.subject)
	}
	if err != nil {
		return err
	}

	r.node = node
	r.nodeDone = true
	return nil
}

// filterDepth keeps nodes whose depth lies in [lo, hi], preserving order.
func filterDepth(nodes []Node, lo, hi int) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Depth >= lo && n.Depth <= hi {
			out = append(out, n)
		}
	}
	return out
}
