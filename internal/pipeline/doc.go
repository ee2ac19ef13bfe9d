// Package pipeline sequences the matching stages into one run: archive
// matching, file matching, archive match refinement, package reduction, and
// orphan cleanup. A run holds the workspace lock for its duration so two
// pipelines never mutate the same store concurrently, and every log line
// carries the run identifier.
package pipeline
