// Package doctor provides health checks for treemenu infrastructure.
//
// The doctor command validates that the menu system is properly configured
// by checking the menu definition file, database state, tree integrity, and
// the application-provided menu_subjects view.
//
// Example usage:
//
//	d := doctor.New(db, "menu.yaml")
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pthm/treemenu"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Menu File", "Tree Integrity").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	// Group checks by category
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	// Print each category
	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				// Indent details
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	// Print summary
	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Doctor performs health checks on the treemenu infrastructure.
type Doctor struct {
	db       *sql.DB
	menuPath string

	// Cached data from checks (populated during Run)
	menu         *treemenu.Menu
	status       *treemenu.Status
	subjectsInfo *SubjectsInfo
}

// SubjectsInfo contains information about the menu_subjects relation.
type SubjectsInfo struct {
	Exists     bool
	RelKind    string // 'r' = table, 'v' = view, 'm' = materialized view
	RelKindStr string // human-readable
	Columns    []string
}

// New creates a new Doctor instance.
func New(db *sql.DB, menuPath string) *Doctor {
	return &Doctor{
		db:       db,
		menuPath: menuPath,
	}
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	// Run checks in order, building up cached data
	d.checkMenuFile(report)
	if err := d.checkNodesState(ctx, report); err != nil {
		return nil, fmt.Errorf("checking nodes state: %w", err)
	}
	if err := d.checkSubjectsView(ctx, report); err != nil {
		return nil, fmt.Errorf("checking subjects view: %w", err)
	}
	if err := d.checkTreeIntegrity(ctx, report); err != nil {
		return nil, fmt.Errorf("checking tree integrity: %w", err)
	}
	if err := d.checkSubjectLinkage(ctx, report); err != nil {
		return nil, fmt.Errorf("checking subject linkage: %w", err)
	}

	return report, nil
}

// checkMenuFile validates the menu definition file exists and is valid.
// A missing file is only a warning: once loaded, the database is the
// source of truth and the file is needed again only for the next load.
func (d *Doctor) checkMenuFile(report *Report) {
	m := treemenu.NewMigrator(d.db, d.menuPath)
	menuPath := m.MenuPath()

	if !m.HasMenu() {
		report.AddCheck(CheckResult{
			Category: "Menu File",
			Name:     "exists",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("Menu definition not found at %s", menuPath),
			Details:  "The database keeps serving the last loaded menu",
			FixHint:  "Create a menu.yaml or point the menu setting at one",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: "Menu File",
		Name:     "exists",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Menu definition exists at %s", menuPath),
	})

	menu, err := treemenu.ParseMenuFile(menuPath)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: "Menu File",
			Name:     "valid",
			Status:   StatusFail,
			Message:  "Menu definition has syntax errors",
			Details:  err.Error(),
			FixHint:  "Fix the YAML syntax and re-run",
		})
		return
	}

	if err := menu.Validate(); err != nil {
		report.AddCheck(CheckResult{
			Category: "Menu File",
			Name:     "valid",
			Status:   StatusFail,
			Message:  "Menu definition is invalid",
			Details:  err.Error(),
			FixHint:  "Fix the reported item and re-run",
		})
		return
	}

	d.menu = menu

	report.AddCheck(CheckResult{
		Category: "Menu File",
		Name:     "valid",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Menu is valid (%d items, %d trees)", menu.CountItems(), len(menu.Items)),
	})
}

// checkNodesState validates the menu_nodes table and its contents.
func (d *Doctor) checkNodesState(ctx context.Context, report *Report) error {
	m := treemenu.NewMigrator(d.db, d.menuPath)

	status, err := m.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("getting status: %w", err)
	}
	d.status = status

	if !status.NodesTableExists {
		report.AddCheck(CheckResult{
			Category: "Menu Nodes",
			Name:     "table_exists",
			Status:   StatusFail,
			Message:  "menu_nodes table does not exist",
			FixHint:  "Run 'treemenu migrate' to create it",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: "Menu Nodes",
		Name:     "table_exists",
		Status:   StatusPass,
		Message:  "menu_nodes table exists",
	})

	if status.NodeCount == 0 {
		report.AddCheck(CheckResult{
			Category: "Menu Nodes",
			Name:     "loaded",
			Status:   StatusWarn,
			Message:  "menu_nodes is empty",
			Details:  "No menu has been loaded; resolution returns no nodes",
			FixHint:  "Run 'treemenu load' to load the menu definition",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: "Menu Nodes",
			Name:     "loaded",
			Status:   StatusPass,
			Message:  fmt.Sprintf("Menu loaded (%d nodes in %d trees)", status.NodeCount, status.TreeCount),
		})
	}

	// Three indexes ship with the schema; fewer means an older migration.
	if status.IndexCount < 3 {
		report.AddCheck(CheckResult{
			Category: "Menu Nodes",
			Name:     "indexes",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("Found %d menu indexes, expected 3", status.IndexCount),
			Details:  "Subject lookups and tree scans may be slow or unguarded",
			FixHint:  "Run 'treemenu migrate' to recreate missing indexes",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: "Menu Nodes",
			Name:     "indexes",
			Status:   StatusPass,
			Message:  fmt.Sprintf("All %d menu indexes present", status.IndexCount),
		})
	}

	// Compare loaded state against the menu file when both are available
	if d.menu != nil && status.NodeCount > 0 {
		fileItems := int64(d.menu.CountItems())
		if fileItems != status.NodeCount {
			report.AddCheck(CheckResult{
				Category: "Menu Nodes",
				Name:     "in_sync",
				Status:   StatusWarn,
				Message:  "Menu file differs from loaded menu",
				Details:  fmt.Sprintf("File defines %d items, database holds %d nodes", fileItems, status.NodeCount),
				FixHint:  "Run 'treemenu load' to apply the file",
			})
		} else {
			report.AddCheck(CheckResult{
				Category: "Menu Nodes",
				Name:     "in_sync",
				Status:   StatusPass,
				Message:  "Menu file matches loaded node count",
			})
		}
	}

	return nil
}

// checkSubjectsView validates the application-provided menu_subjects relation.
func (d *Doctor) checkSubjectsView(ctx context.Context, report *Report) error {
	info, err := d.getSubjectsInfo(ctx)
	if err != nil {
		return fmt.Errorf("getting subjects info: %w", err)
	}
	d.subjectsInfo = info

	if !info.Exists {
		report.AddCheck(CheckResult{
			Category: "Subjects View",
			Name:     "exists",
			Status:   StatusFail,
			Message:  "menu_subjects does not exist",
			Details:  "Nodes resolve without URLs or titles and path lookup always misses",
			FixHint:  "Create a view/table named menu_subjects over your domain tables",
		})
		return nil
	}

	report.AddCheck(CheckResult{
		Category: "Subjects View",
		Name:     "exists",
		Status:   StatusPass,
		Message:  fmt.Sprintf("menu_subjects exists (%s)", info.RelKindStr),
	})

	// Check required columns
	requiredCols := []string{"subject_type", "subject_id", "url", "title"}
	colSet := make(map[string]bool)
	for _, col := range info.Columns {
		colSet[col] = true
	}

	var missingCols []string
	for _, col := range requiredCols {
		if !colSet[col] {
			missingCols = append(missingCols, col)
		}
	}

	if len(missingCols) > 0 {
		report.AddCheck(CheckResult{
			Category: "Subjects View",
			Name:     "columns",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Missing required columns: %s", strings.Join(missingCols, ", ")),
			Details:  fmt.Sprintf("Found columns: %s", strings.Join(info.Columns, ", ")),
			FixHint:  "Update menu_subjects to include all required columns",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: "Subjects View",
			Name:     "columns",
			Status:   StatusPass,
			Message:  "All required columns present",
		})
	}

	// For materialized views, suggest refresh consideration
	if info.RelKind == "m" {
		report.AddCheck(CheckResult{
			Category: "Subjects View",
			Name:     "refresh",
			Status:   StatusWarn,
			Message:  "menu_subjects is a materialized view",
			Details:  "Materialized views require manual refresh to see data changes",
			FixHint:  "Ensure you have a refresh strategy (e.g., REFRESH MATERIALIZED VIEW CONCURRENTLY)",
		})
	}

	return nil
}

// checkTreeIntegrity validates the nested-set structure of menu_nodes.
// The loader always writes consistent trees; violations mean rows were
// edited by hand or a required index was dropped.
func (d *Doctor) checkTreeIntegrity(ctx context.Context, report *Report) error {
	if d.status == nil || !d.status.NodesTableExists || d.status.NodeCount == 0 {
		return nil // Already reported in nodes check
	}

	// Duplicate subjects break current-node resolution. The unique index
	// prevents this; finding any means the index is gone.
	rows, err := d.db.QueryContext(ctx, `
		SELECT subject_type, subject_id, COUNT(*)
		FROM menu_nodes
		GROUP BY subject_type, subject_id
		HAVING COUNT(*) > 1
		ORDER BY subject_type, subject_id
	`)
	if err != nil {
		return fmt.Errorf("querying duplicate subjects: %w", err)
	}

	var duplicates []string
	for rows.Next() {
		var subjectType, subjectID string
		var count int64
		if err := rows.Scan(&subjectType, &subjectID, &count); err != nil {
			_ = rows.Close()
			return err
		}
		duplicates = append(duplicates, fmt.Sprintf("%s:%s (%d nodes)", subjectType, subjectID, count))
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	if len(duplicates) > 0 {
		report.AddCheck(CheckResult{
			Category: "Tree Integrity",
			Name:     "unique_subjects",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d subjects appear on multiple nodes", len(duplicates)),
			Details:  capDetails(duplicates),
			FixHint:  "Run 'treemenu migrate' then 'treemenu load' to rebuild",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: "Tree Integrity",
			Name:     "unique_subjects",
			Status:   StatusPass,
			Message:  "Each subject appears on exactly one node",
		})
	}

	// Roots must sit at depth 0
	badRoots, err := d.collectIDs(ctx, `
		SELECT id FROM menu_nodes
		WHERE parent_id IS NULL AND depth <> 0
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("querying root depths: %w", err)
	}

	// Children must stay in their parent's tree, one level down, inside
	// the parent's interval
	badChildren, err := d.collectIDs(ctx, `
		SELECT c.id
		FROM menu_nodes c
		JOIN menu_nodes p ON p.id = c.parent_id
		WHERE c.tree_id <> p.tree_id
		   OR c.depth <> p.depth + 1
		   OR c.lft <= p.lft
		   OR c.rght >= p.rght
		ORDER BY c.id
	`)
	if err != nil {
		return fmt.Errorf("querying parent/child consistency: %w", err)
	}

	violations := len(badRoots) + len(badChildren)
	if violations > 0 {
		var details []string
		for _, id := range badRoots {
			details = append(details, fmt.Sprintf("node %d: root with nonzero depth", id))
		}
		for _, id := range badChildren {
			details = append(details, fmt.Sprintf("node %d: inconsistent with its parent", id))
		}
		report.AddCheck(CheckResult{
			Category: "Tree Integrity",
			Name:     "structure",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d nodes violate the nested-set structure", violations),
			Details:  capDetails(details),
			FixHint:  "Run 'treemenu load' to rebuild the trees from the menu definition",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: "Tree Integrity",
			Name:     "structure",
			Status:   StatusPass,
			Message:  "Nested-set structure is consistent",
		})
	}

	// Depths beyond the resolver's window maximum are unreachable
	var tooDeep int64
	err = d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM menu_nodes WHERE depth > $1", treemenu.MaxDepth,
	).Scan(&tooDeep)
	if err != nil {
		return fmt.Errorf("querying node depths: %w", err)
	}

	if tooDeep > 0 {
		report.AddCheck(CheckResult{
			Category: "Tree Integrity",
			Name:     "depth",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d nodes deeper than level %d", tooDeep, treemenu.MaxDepth),
			Details:  "Nodes beyond the maximum level never pass the depth window",
		})
	}

	return nil
}

// checkSubjectLinkage validates that loaded nodes resolve through the
// menu_subjects view.
func (d *Doctor) checkSubjectLinkage(ctx context.Context, report *Report) error {
	if d.status == nil || !d.status.NodesTableExists || d.status.NodeCount == 0 {
		return nil
	}
	if d.subjectsInfo == nil || !d.subjectsInfo.Exists {
		return nil // Already reported in subjects check
	}

	// Subjects appearing more than once in the view fan out every node
	// query through the join.
	rows, err := d.db.QueryContext(ctx, `
		SELECT s.subject_type, s.subject_id, COUNT(*)
		FROM menu_subjects s
		JOIN menu_nodes n ON n.subject_type = s.subject_type AND n.subject_id = s.subject_id
		GROUP BY s.subject_type, s.subject_id
		HAVING COUNT(*) > 1
		ORDER BY s.subject_type, s.subject_id
	`)
	if err != nil {
		// The view may be broken in ways the column check missed
		report.AddCheck(CheckResult{
			Category: "Subject Linkage",
			Name:     "query",
			Status:   StatusWarn,
			Message:  "Could not query menu_subjects",
			Details:  err.Error(),
		})
		return nil
	}

	var fanout []string
	for rows.Next() {
		var subjectType, subjectID string
		var count int64
		if err := rows.Scan(&subjectType, &subjectID, &count); err != nil {
			_ = rows.Close()
			return err
		}
		fanout = append(fanout, fmt.Sprintf("%s:%s (%d rows)", subjectType, subjectID, count))
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	if len(fanout) > 0 {
		report.AddCheck(CheckResult{
			Category: "Subject Linkage",
			Name:     "view_duplicates",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d subjects have multiple rows in menu_subjects", len(fanout)),
			Details:  capDetails(fanout),
			FixHint:  "Deduplicate the view so each subject maps to one row",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: "Subject Linkage",
			Name:     "view_duplicates",
			Status:   StatusPass,
			Message:  "Each subject maps to one row in menu_subjects",
		})
	}

	// Nodes whose subject is missing from the view render without URL or
	// title and cannot be resolved from a request path.
	unlinkedRows, err := d.db.QueryContext(ctx, `
		SELECT n.subject_type, n.subject_id
		FROM menu_nodes n
		LEFT JOIN menu_subjects s ON s.subject_type = n.subject_type AND s.subject_id = n.subject_id
		WHERE s.subject_id IS NULL
		ORDER BY n.tree_id, n.lft
	`)
	if err != nil {
		return fmt.Errorf("querying unlinked nodes: %w", err)
	}

	var unlinked []string
	for unlinkedRows.Next() {
		var subjectType, subjectID string
		if err := unlinkedRows.Scan(&subjectType, &subjectID); err != nil {
			_ = unlinkedRows.Close()
			return err
		}
		unlinked = append(unlinked, subjectType+":"+subjectID)
	}
	if err := unlinkedRows.Err(); err != nil {
		_ = unlinkedRows.Close()
		return err
	}
	_ = unlinkedRows.Close()

	if len(unlinked) > 0 {
		report.AddCheck(CheckResult{
			Category: "Subject Linkage",
			Name:     "linked",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d nodes have no row in menu_subjects", len(unlinked)),
			Details:  capDetails(unlinked),
			FixHint:  "Extend the view to cover these subjects or remove them from the menu",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: "Subject Linkage",
			Name:     "linked",
			Status:   StatusPass,
			Message:  "All nodes resolve through menu_subjects",
		})
	}

	// Duplicate URLs are legal but ambiguous: path resolution picks the
	// first node in tree order.
	urlRows, err := d.db.QueryContext(ctx, `
		SELECT s.url, array_agg(n.id ORDER BY n.tree_id, n.lft)
		FROM menu_nodes n
		JOIN menu_subjects s ON s.subject_type = n.subject_type AND s.subject_id = n.subject_id
		WHERE s.url <> ''
		GROUP BY s.url
		HAVING COUNT(*) > 1
		ORDER BY s.url
	`)
	if err != nil {
		return fmt.Errorf("querying duplicate urls: %w", err)
	}

	var ambiguous []string
	for urlRows.Next() {
		var url string
		var nodeIDs pq.Int64Array
		if err := urlRows.Scan(&url, &nodeIDs); err != nil {
			_ = urlRows.Close()
			return err
		}
		ids := make([]string, len(nodeIDs))
		for i, id := range nodeIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		ambiguous = append(ambiguous, fmt.Sprintf("%s -> nodes %s", url, strings.Join(ids, ", ")))
	}
	if err := urlRows.Err(); err != nil {
		_ = urlRows.Close()
		return err
	}
	_ = urlRows.Close()

	if len(ambiguous) > 0 {
		report.AddCheck(CheckResult{
			Category: "Subject Linkage",
			Name:     "unique_urls",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d URLs map to multiple nodes", len(ambiguous)),
			Details:  capDetails(ambiguous),
			FixHint:  "Path resolution picks the first node in tree order; give each page its own URL",
		})
	}

	return nil
}

// collectIDs runs a query returning a single bigint column.
func (d *Doctor) collectIDs(ctx context.Context, query string) ([]int64, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// getSubjectsInfo retrieves information about the menu_subjects relation.
func (d *Doctor) getSubjectsInfo(ctx context.Context) (*SubjectsInfo, error) {
	info := &SubjectsInfo{}

	// Check if relation exists and get type
	var relKind string
	err := d.db.QueryRowContext(ctx, `
		SELECT c.relkind
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relname = 'menu_subjects'
		AND n.nspname = current_schema()
		AND c.relkind IN ('r', 'v', 'm')
	`).Scan(&relKind)

	if err == sql.ErrNoRows {
		return info, nil
	}
	if err != nil {
		return nil, err
	}

	info.Exists = true
	info.RelKind = relKind
	switch relKind {
	case "r":
		info.RelKindStr = "table"
	case "v":
		info.RelKindStr = "view"
	case "m":
		info.RelKindStr = "materialized view"
	}

	// Get columns
	rows, err := d.db.QueryContext(ctx, `
		SELECT a.attname
		FROM pg_attribute a
		JOIN pg_class c ON a.attrelid = c.oid
		JOIN pg_namespace n ON c.relnamespace = n.oid
		WHERE c.relname = 'menu_subjects'
		AND n.nspname = current_schema()
		AND a.attnum > 0
		AND NOT a.attisdropped
		ORDER BY a.attnum
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		info.Columns = append(info.Columns, col)
	}

	return info, rows.Err()
}

// capDetails joins detail lines, truncating long lists.
func capDetails(lines []string) string {
	if len(lines) > 10 {
		return strings.Join(lines[:10], "\n") + fmt.Sprintf("\n... and %d more", len(lines)-10)
	}
	return strings.Join(lines, "\n")
}
