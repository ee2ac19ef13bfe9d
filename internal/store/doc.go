// Package store persists the scanned codebase and its package attributions in
// SQLite and exposes the query surface the matching pipeline depends on:
// status and fingerprint filters, path-prefix scans, chunked iteration over
// large result sets, bulk attribution writes, and orphan-package cleanup.
//
// Resources and packages relate many-to-many through the attributions table.
// All result-set iteration streams rows; chunk callbacks bound memory use for
// arbitrarily large codebases.
//
// Treat this package as the single source of truth for storage semantics; when
// you add columns, update schema.sql and bump schemaVersion.
package store
