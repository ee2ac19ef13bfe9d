// Package matcher implements the resource matching stage: eligible to/-side
// files are looked up in PurlDB by SHA1 in bounded batches, and matched files
// are attributed to the returned candidate packages.
package matcher
