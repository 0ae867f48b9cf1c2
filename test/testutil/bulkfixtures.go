package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pthm/treemenu"
)

// BulkFixtures provides factory functions for creating test data using
// PostgreSQL COPY FROM. This is 10-100x faster than batch INSERTs for
// large datasets, which matters for wide-menu tests and benchmarks.
type BulkFixtures struct {
	db  *sql.DB
	ctx context.Context
}

// NewBulkFixtures creates a new BulkFixtures instance for bulk data loading via COPY FROM.
func NewBulkFixtures(ctx context.Context, db *sql.DB) *BulkFixtures {
	return &BulkFixtures{db: db, ctx: ctx}
}

// copyFrom executes a COPY FROM operation using the pgx driver.
// data should be a tab-delimited text stream (one row per line).
func (bf *BulkFixtures) copyFrom(table string, columns []string, data io.Reader) error {
	// Get a connection from the pool
	conn, err := bf.db.Conn(bf.ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	// Access the underlying pgx connection through stdlib wrapper
	var pgxConn *pgx.Conn
	err = conn.Raw(func(driverConn any) error {
		// First try to unwrap stdlib.Conn
		if stdlibConn, ok := driverConn.(*stdlib.Conn); ok {
			pgxConn = stdlibConn.Conn()
			return nil
		}
		// Fall back to direct pgx.Conn (for compatibility)
		if directConn, ok := driverConn.(*pgx.Conn); ok {
			pgxConn = directConn
			return nil
		}
		return fmt.Errorf("not a pgx connection (got %T)", driverConn)
	})
	if err != nil {
		return fmt.Errorf("access pgx connection: %w", err)
	}

	// Build COPY FROM query
	query := fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT text, DELIMITER E'\\t')",
		table, joinColumns(columns))

	// Execute COPY FROM
	_, err = pgxConn.PgConn().CopyFrom(bf.ctx, data, query)
	if err != nil {
		return fmt.Errorf("COPY FROM: %w", err)
	}

	return nil
}

// joinColumns joins column names with commas.
func joinColumns(cols []string) string {
	if len(cols) == 0 {
		return ""
	}
	result := cols[0]
	for i := 1; i < len(cols); i++ {
		result += ", " + cols[i]
	}
	return result
}

// CreatePages creates n extra pages using COPY FROM and returns their ids
// in ascending order. Falls back to batch INSERT if COPY fails.
func (bf *BulkFixtures) CreatePages(n int) ([]int64, error) {
	if n == 0 {
		return nil, nil
	}

	// Try COPY FROM first
	ids, err := bf.createPagesCopy(n)
	if err == nil {
		return ids, nil
	}

	// Log warning and fall back to batch INSERT
	log.Printf("COPY FROM failed for pages (%v), falling back to batch INSERT", err)
	return bf.createPagesInsert(n)
}

// createPagesCopy generates TSV data in memory and uses COPY FROM.
func (bf *BulkFixtures) createPagesCopy(n int) ([]int64, error) {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		fmt.Fprintf(&buf, "/bench/page-%d\tBench page %d\n", i, i)
	}

	if err := bf.copyFrom("pages", []string{"path", "title"}, &buf); err != nil {
		return nil, err
	}

	return bf.fetchPageIDs(n)
}

// createPagesInsert creates pages with multi-row INSERTs, 1000 rows per batch.
func (bf *BulkFixtures) createPagesInsert(n int) ([]int64, error) {
	ids := make([]int64, 0, n)

	batchSize := 1000
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}

		query := "INSERT INTO pages (path, title) VALUES "
		args := make([]any, 0, (end-start)*2)
		for i := start; i < end; i++ {
			if i > start {
				query += ", "
			}
			query += fmt.Sprintf("($%d, $%d)", len(args)+1, len(args)+2)
			args = append(args, fmt.Sprintf("/bench/page-%d", i), fmt.Sprintf("Bench page %d", i))
		}
		query += " RETURNING id"

		rows, err := bf.db.QueryContext(bf.ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("insert pages batch %d-%d: %w", start, end, err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				_ = rows.Close()
				return nil, err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, err
		}
		_ = rows.Close()
	}

	return ids, nil
}

// fetchPageIDs fetches the most recent n page ids in ascending order.
func (bf *BulkFixtures) fetchPageIDs(n int) ([]int64, error) {
	rows, err := bf.db.QueryContext(bf.ctx,
		"SELECT id FROM pages ORDER BY id DESC LIMIT $1", n)
	if err != nil {
		return nil, fmt.Errorf("fetch page ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0, n)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get ascending order
	for i := 0; i < len(ids)/2; i++ {
		ids[i], ids[len(ids)-1-i] = ids[len(ids)-1-i], ids[i]
	}

	return ids, nil
}

// LoadWideMenu replaces the loaded menu with a single tree: one root page
// with every other page as a direct child. Useful for exercising resolution
// over menus far wider than the fixture.
func (bf *BulkFixtures) LoadWideMenu(rootPageID int64, childPageIDs []int64) error {
	root := treemenu.Item{Subject: fmt.Sprintf("page:%d", rootPageID)}
	for _, id := range childPageIDs {
		root.Children = append(root.Children, treemenu.Item{Subject: fmt.Sprintf("page:%d", id)})
	}
	menu := &treemenu.Menu{Items: []treemenu.Item{root}}

	return treemenu.NewMigrator(bf.db, "").Load(bf.ctx, menu)
}

// NodeCount returns the current count of rows in menu_nodes.
func (bf *BulkFixtures) NodeCount() (int, error) {
	var count int
	err := bf.db.QueryRowContext(bf.ctx, "SELECT COUNT(*) FROM menu_nodes").Scan(&count)
	return count, err
}
