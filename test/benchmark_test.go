package test

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/pthm/treemenu"
	"github.com/pthm/treemenu/test/testutil"
)

// BenchmarkScale defines the menu magnitude for a benchmark run.
type BenchmarkScale struct {
	Name  string
	Nodes int
}

// Production-scale benchmark configurations. Menus are wide rather than
// deep: one root with Nodes-1 children, which is the worst case for the
// whole-tree strategies and for path matching.
var benchmarkScales = []BenchmarkScale{
	{Name: "100", Nodes: 100},
	{Name: "1K", Nodes: 1000},
	{Name: "10K", Nodes: 10000},
}

// benchmarkData holds references to created test data for benchmarks.
type benchmarkData struct {
	db      *sql.DB
	store   *treemenu.SQLStore
	pageIDs []int64
}

// subject returns the menu subject for a created page.
func (d *benchmarkData) subject(pageID int64) treemenu.Subject {
	return treemenu.Subject{Type: "page", ID: strconv.FormatInt(pageID, 10)}
}

// midPage returns a page from the middle of the children.
func (d *benchmarkData) midPage() int64 {
	return d.pageIDs[len(d.pageIDs)/2]
}

// midPath returns the URL of midPage. CreatePages numbers paths from zero
// in insertion order, so index i carries path /bench/page-i.
func (d *benchmarkData) midPath() string {
	return fmt.Sprintf("/bench/page-%d", len(d.pageIDs)/2)
}

// setupBenchmarkData creates and loads a menu at the specified scale.
func setupBenchmarkData(b *testing.B, scale BenchmarkScale) *benchmarkData {
	b.Helper()

	db := testutil.DB(b)
	ctx := context.Background()
	bulk := testutil.NewBulkFixtures(ctx, db)

	pageIDs, err := bulk.CreatePages(scale.Nodes)
	if err != nil {
		b.Fatalf("create pages: %v", err)
	}

	if err := bulk.LoadWideMenu(pageIDs[0], pageIDs[1:]); err != nil {
		b.Fatalf("load menu: %v", err)
	}

	count, err := bulk.NodeCount()
	if err != nil {
		b.Fatalf("count nodes: %v", err)
	}
	if count != scale.Nodes {
		b.Fatalf("expected %d nodes, got %d", scale.Nodes, count)
	}

	return &benchmarkData{
		db:      db,
		store:   treemenu.NewSQLStore(db),
		pageIDs: pageIDs,
	}
}

// BenchmarkGetNodes benchmarks full resolution passes across scales.
func BenchmarkGetNodes(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	for _, scale := range benchmarkScales {
		b.Run(scale.Name, func(b *testing.B) {
			data := setupBenchmarkData(b, scale)
			ctx := context.Background()

			b.Run("AllNodes", func(b *testing.B) {
				// Whole tree, no current node involved
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					r := treemenu.NewResolver(data.store, treemenu.RenderContext{})
					nodes, err := r.GetNodes(ctx)
					if err != nil {
						b.Fatal(err)
					}
					if len(nodes) != scale.Nodes {
						b.Fatalf("expected %d nodes, got %d", scale.Nodes, len(nodes))
					}
				}
			})

			b.Run("PathToBranch", func(b *testing.B) {
				// Path match plus the branch around the matched node
				rctx := treemenu.RenderContext{RequestPath: data.midPath()}

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					r := treemenu.NewResolver(data.store, rctx,
						treemenu.WithStrategy(treemenu.StrategyRootsAndBranch))
					if _, err := r.GetNodes(ctx); err != nil {
						b.Fatal(err)
					}
				}
			})

			b.Run("SubjectToChildren", func(b *testing.B) {
				// Explicit subject, children of the root (the whole width)
				subject := data.subject(data.pageIDs[0])

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					r := treemenu.NewResolver(data.store, treemenu.RenderContext{},
						treemenu.WithSubject(subject),
						treemenu.WithStrategy(treemenu.StrategyChildren))
					if _, err := r.GetNodes(ctx); err != nil {
						b.Fatal(err)
					}
				}
			})

			b.Run("UnmatchedPathFallback", func(b *testing.B) {
				// Page outside the menu: path scan misses, fallback runs
				rctx := treemenu.RenderContext{RequestPath: "/not/in/menu"}

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					r := treemenu.NewResolver(data.store, rctx,
						treemenu.WithStrategy(treemenu.StrategyBranch),
						treemenu.WithFallback(treemenu.StrategyRoots))
					if _, err := r.GetNodes(ctx); err != nil {
						b.Fatal(err)
					}
				}
			})
		})
	}
}

// BenchmarkNodeByPath benchmarks path matching against the subjects view.
func BenchmarkNodeByPath(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	for _, scale := range benchmarkScales {
		b.Run(scale.Name, func(b *testing.B) {
			data := setupBenchmarkData(b, scale)
			ctx := context.Background()

			b.Run("Hit", func(b *testing.B) {
				path := data.midPath()

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					node, err := data.store.NodeByPath(ctx, path)
					if err != nil {
						b.Fatal(err)
					}
					if node == nil {
						b.Fatalf("no node for %s", path)
					}
				}
			})

			b.Run("Miss", func(b *testing.B) {
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					node, err := data.store.NodeByPath(ctx, "/not/in/menu")
					if err != nil {
						b.Fatal(err)
					}
					if node != nil {
						b.Fatal("unexpected match")
					}
				}
			})
		})
	}
}

// BenchmarkStoreTraversals benchmarks the raw store queries the strategies
// are built from.
func BenchmarkStoreTraversals(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	for _, scale := range benchmarkScales {
		b.Run(scale.Name, func(b *testing.B) {
			data := setupBenchmarkData(b, scale)
			ctx := context.Background()

			root, err := data.store.NodeBySubject(ctx, data.subject(data.pageIDs[0]))
			if err != nil {
				b.Fatalf("resolve root: %v", err)
			}
			leaf, err := data.store.NodeBySubject(ctx, data.subject(data.midPage()))
			if err != nil {
				b.Fatalf("resolve leaf: %v", err)
			}

			b.Run("AllNodes", func(b *testing.B) {
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := data.store.AllNodes(ctx); err != nil {
						b.Fatal(err)
					}
				}
			})

			b.Run("ChildrenOfRoot", func(b *testing.B) {
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := data.store.Children(ctx, root); err != nil {
						b.Fatal(err)
					}
				}
			})

			b.Run("BranchOfLeaf", func(b *testing.B) {
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := data.store.Branch(ctx, leaf); err != nil {
						b.Fatal(err)
					}
				}
			})
		})
	}
}

// BenchmarkGetNodesParallel benchmarks resolution under parallel load.
func BenchmarkGetNodesParallel(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	// Medium scale for parallel runs
	data := setupBenchmarkData(b, BenchmarkScale{Name: "1K-Parallel", Nodes: 1000})
	ctx := context.Background()

	b.Run("PathResolution", func(b *testing.B) {
		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				// Cycle through pages
				rctx := treemenu.RenderContext{
					RequestPath: fmt.Sprintf("/bench/page-%d", i%len(data.pageIDs)),
				}
				r := treemenu.NewResolver(data.store, rctx,
					treemenu.WithStrategy(treemenu.StrategyRootsAndBranch))
				if _, err := r.GetNodes(ctx); err != nil {
					b.Fatal(err)
				}
				i++
			}
		})
	})

	b.Run("SharedCache", func(b *testing.B) {
		cache := treemenu.NewSharedCache()
		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				subject := data.subject(data.pageIDs[i%len(data.pageIDs)])
				r := treemenu.NewResolver(data.store, treemenu.RenderContext{},
					treemenu.WithSubject(subject),
					treemenu.WithStrategy(treemenu.StrategyRootsAndBranch),
					treemenu.WithCache(cache))
				if _, err := r.GetNodes(ctx); err != nil {
					b.Fatal(err)
				}
				i++
			}
		})
	})
}

// BenchmarkGetNodesWithCache compares resolution with and without a shared
// cache across passes.
func BenchmarkGetNodesWithCache(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	data := setupBenchmarkData(b, BenchmarkScale{Name: "1K-Cached", Nodes: 1000})
	ctx := context.Background()
	subject := data.subject(data.midPage())

	b.Run("WithoutCache", func(b *testing.B) {
		store := treemenu.NewSQLStore(data.db)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			r := treemenu.NewResolver(store, treemenu.RenderContext{},
				treemenu.WithSubject(subject),
				treemenu.WithStrategy(treemenu.StrategyRootsAndBranch))
			if _, err := r.GetNodes(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("WithSharedCache", func(b *testing.B) {
		cache := treemenu.NewSharedCache()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			r := treemenu.NewResolver(data.store, treemenu.RenderContext{},
				treemenu.WithSubject(subject),
				treemenu.WithStrategy(treemenu.StrategyRootsAndBranch),
				treemenu.WithCache(cache))
			if _, err := r.GetNodes(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ColdStart", func(b *testing.B) {
		// Each iteration gets a fresh cache
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			cache := treemenu.NewSharedCache()
			r := treemenu.NewResolver(data.store, treemenu.RenderContext{},
				treemenu.WithSubject(subject),
				treemenu.WithStrategy(treemenu.StrategyRootsAndBranch),
				treemenu.WithCache(cache))
			if _, err := r.GetNodes(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkLoad benchmarks rebuilding the tree from a menu definition.
// Every load truncates and rewrites the whole table.
func BenchmarkLoad(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping benchmark in short mode")
	}

	for _, scale := range benchmarkScales {
		b.Run(scale.Name, func(b *testing.B) {
			db := testutil.DB(b)
			ctx := context.Background()
			bulk := testutil.NewBulkFixtures(ctx, db)

			pageIDs, err := bulk.CreatePages(scale.Nodes)
			if err != nil {
				b.Fatalf("create pages: %v", err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := bulk.LoadWideMenu(pageIDs[0], pageIDs[1:]); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
