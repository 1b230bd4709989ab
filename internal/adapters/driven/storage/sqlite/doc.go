// Package sqlite provides the SQLite-backed build catalog.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It records the manifest of every
// published index snapshot so `debtscan index history` can show past builds
// even after their snapshot directories were pruned.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are tracked in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.debtscan/data/catalog.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
