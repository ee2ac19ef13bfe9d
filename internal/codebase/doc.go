// Package codebase defines the domain model shared across the matching
// pipeline: scanned resources, discovered packages, and the resource status
// lifecycle.
//
// A Resource is one file or directory recorded during collection. A Package is
// a candidate attribution discovered in PurlDB. The two are related many-to-
// many through the store's attribution table; this package only describes the
// records and the legal status transitions, never touches storage.
//
// Statuses form a closed progression: an unset status marks a resource that no
// stage has claimed yet, the matched statuses are written by the resource
// matcher, and the refined status is written by the archive match refiner to
// mark directory-consensus attributions and prevent reprocessing.
package codebase
