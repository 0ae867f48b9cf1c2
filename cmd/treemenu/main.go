// Package main provides a CLI for managing treemenu navigation trees.
//
// The CLI supports:
//   - migrate: Create the menu_nodes table and indexes in PostgreSQL
//   - load: Load a YAML menu definition into the database
//   - status: Show menu deployment state
//   - doctor: Run health checks on the menu infrastructure
//   - show: Render a menu definition or the loaded menu as a tree
//
// This tool is typically run during development and deployment to keep
// the database in sync with the menu definition file.
//
// Usage:
//
//	treemenu [flags] <command>
//
// Commands that require database access (migrate, load, status, doctor)
// need --db, config, or TREEMENU_DATABASE_URL. show works from the menu
// file alone unless --db is given.
package main

func main() {
	Execute()
}
