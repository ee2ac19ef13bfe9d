// Package scanner collects a codebase into the store: it walks a directory
// tree, records each file and directory as a to/-side resource, fingerprints
// file contents with SHA1, and flags archives by extension. Extraction
// directories produced by an external unpacker are recognized by their path
// suffix at query time; the scanner just records them.
package scanner
