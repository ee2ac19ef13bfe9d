// Package purldb exposes the HTTP client for the external PurlDB package
// database and the two checksum-matching strategies the pipeline selects
// between: archives matched against whole package archives, and arbitrary
// files matched against indexed resources.
//
// Callers must check IsAvailable before running a matching stage; a stage
// facing an unreachable service logs and skips rather than failing the run.
package purldb
