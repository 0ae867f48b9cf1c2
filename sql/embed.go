// Package sql provides the embedded schema for treemenu infrastructure.
package sql

import (
	_ "embed"
)

// NodesSQL contains the menu_nodes table definition and its indexes.
// Applied via CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT EXISTS for
// idempotence, so the migrator can run it on every startup.
//
// The SQL is embedded at compile time, ensuring the application binary
// contains the full schema with no runtime dependency on external files.
//
// The menu_subjects view is deliberately not part of this schema: it maps
// application tables to menu subjects and must be created by the
// application itself (see the package documentation for an example).
//
//go:embed nodes.sql
var NodesSQL string
