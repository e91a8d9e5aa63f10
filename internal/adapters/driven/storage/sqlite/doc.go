// Package sqlite provides the persisted vector index backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. An index lives in its own directory
// holding a single index.db file:
//
//   - index_meta: embedding model identifier, dimensions and build time
//   - entries: chunk text, source metadata and the float32 embedding as a BLOB
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Search
//
// Loading an index reads every entry into memory. Search is an exact cosine
// scan, so results are reproducible and ties keep insertion order.
//
// # Thread Safety
//
// A loaded Index is read-only and safe for concurrent Search calls. Builds
// write inside a single transaction in WAL mode.
package sqlite
