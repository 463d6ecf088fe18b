// Package sqlite provides the SQLite-backed legacy id mapping store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements driven.MappingStore with one
// table per id kind:
//
//   - manga_ids: legacy manga id to new manga id
//   - chapter_ids: legacy chapter id to new chapter id
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.dexmigrate/data/mapping.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
