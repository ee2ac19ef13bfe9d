// Package refiner implements the archive match refinement stage: for each
// extraction directory without nested extraction directories, the per-file
// PurlDB matches below it are collapsed to the packages common to all of
// them, replacing individual-file noise with directory-level consensus.
package refiner
