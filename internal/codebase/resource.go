package codebase

import "strings"

// Side identifies which half of a deploy-to-develop comparison a resource
// belongs to. Matching only ever operates on the "to" side.
type Side string

const (
	SideFrom Side = "from"
	SideTo   Side = "to"
)

// Status tracks which pipeline stage has claimed a resource.
type Status string

const (
	// StatusNone marks a resource no stage has processed.
	StatusNone Status = ""
	// StatusMatchedPackage marks an archive whose checksum matched a PurlDB
	// package archive.
	StatusMatchedPackage Status = "matched-to-purldb-package"
	// StatusMatchedResource marks a file whose checksum matched a PurlDB
	// resource.
	StatusMatchedResource Status = "matched-to-purldb-resource"
	// StatusRefined marks a matched file whose attributions were replaced by
	// its extraction directory's package consensus.
	StatusRefined Status = "matched-to-purldb-resource-refined"
)

var statusTransitions = map[Status][]Status{
	StatusNone:            {StatusMatchedPackage, StatusMatchedResource},
	StatusMatchedResource: {StatusRefined},
}

// CanTransition reports whether moving a resource from one status to another
// is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ExtractSuffix is the naming marker the external extractor appends to
// directories it produces from archives.
const ExtractSuffix = "-extract"

// IsExtractPath reports whether a path names an extraction directory.
func IsExtractPath(path string) bool {
	return strings.HasSuffix(path, ExtractSuffix)
}

// Resource represents one file or directory in the scanned tree.
type Resource struct {
	ID        int64
	ProjectID string
	Path      string
	Side      Side
	IsFile    bool
	IsArchive bool
	SHA1      string
	Size      int64
	Status    Status
}

// IsExtractDir reports whether the resource is a directory produced by
// unpacking an archive.
func (r *Resource) IsExtractDir() bool {
	return !r.IsFile && IsExtractPath(r.Path)
}
