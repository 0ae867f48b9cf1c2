package treemenu

import "errors"

// Sentinel errors for failure modes during menu resolution.
// ErrNodeNotFound and ErrDuplicateNode indicate data-integrity problems the
// application must prevent; they are propagated, never recovered.
// ErrNoCurrentNode is the one recoverable condition: GetNodes substitutes
// the fallback strategy when the selected strategy reports it.
//
// Use the Is*Err helper functions to check for specific errors and provide
// helpful setup messages to users.
var (
	// ErrNodeNotFound is returned when no menu node exists for a subject,
	// a node id, or a lookup that the caller expected to succeed.
	ErrNodeNotFound = errors.New("treemenu: no node for subject")

	// ErrDuplicateNode is returned when more than one node maps to the same
	// subject. The menu_nodes schema enforces uniqueness; seeing this error
	// means the table was populated outside the loader. Run `treemenu doctor`
	// to locate the duplicates.
	ErrDuplicateNode = errors.New("treemenu: multiple nodes for subject")

	// ErrNoCurrentNode is reported by strategies that need a resolved
	// current node when none is available. GetNodes recovers from it once
	// by substituting the fallback strategy; it only escapes when the
	// fallback itself needs a current node.
	ErrNoCurrentNode = errors.New("treemenu: no current node resolved")

	// ErrNoNodesTable is returned when the menu_nodes table doesn't exist.
	// Run `treemenu migrate` to create it.
	ErrNoNodesTable = errors.New("treemenu: menu_nodes table not found")

	// ErrNoSubjectsView is returned when the menu_subjects view doesn't
	// exist or doesn't match the expected column contract
	// (subject_type, subject_id, url, title). The application provides this
	// view over its own tables; see the documentation for examples.
	ErrNoSubjectsView = errors.New("treemenu: menu_subjects view/table not found or invalid")

	// ErrInvalidMenu is returned when a menu definition fails validation:
	// malformed subject references, duplicate subjects, or nesting deeper
	// than MaxDepth.
	ErrInvalidMenu = errors.New("treemenu: invalid menu definition")
)

// IsNodeNotFoundErr returns true if err is or wraps ErrNodeNotFound.
func IsNodeNotFoundErr(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsDuplicateNodeErr returns true if err is or wraps ErrDuplicateNode.
func IsDuplicateNodeErr(err error) bool {
	return errors.Is(err, ErrDuplicateNode)
}

// IsNoCurrentNodeErr returns true if err is or wraps ErrNoCurrentNode.
func IsNoCurrentNodeErr(err error) bool {
	return errors.Is(err, ErrNoCurrentNode)
}

// IsNoNodesTableErr returns true if err is or wraps ErrNoNodesTable.
func IsNoNodesTableErr(err error) bool {
	return errors.Is(err, ErrNoNodesTable)
}

// IsNoSubjectsViewErr returns true if err is or wraps ErrNoSubjectsView.
func IsNoSubjectsViewErr(err error) bool {
	return errors.Is(err, ErrNoSubjectsView)
}

// IsInvalidMenuErr returns true if err is or wraps ErrInvalidMenu.
func IsInvalidMenuErr(err error) bool {
	return errors.Is(err, ErrInvalidMenu)
}

// PostgreSQL error codes for error mapping.
// These codes are used by SQLStore to detect missing schema components and
// wrap them in sentinel errors for easier application-level handling.
const (
	pgUndefinedTable  = "42P01" // undefined_table
	pgUndefinedColumn = "42703" // undefined_column
)
