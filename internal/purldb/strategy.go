package purldb

import (
	"context"

	"purlmatch/internal/codebase"
)

// Strategy selects which PurlDB index a batch of checksums is matched
// against, and which status matched resources receive.
type Strategy interface {
	Name() string
	MatchedStatus() codebase.Status
	Match(ctx context.Context, sha1s []string) (map[string][]PackageData, error)
}

// PackageStrategy matches archive checksums against whole package archives.
type PackageStrategy struct {
	client *Client
}

// NewPackageStrategy returns the archive-as-package matching strategy.
func NewPackageStrategy(client *Client) *PackageStrategy {
	return &PackageStrategy{client: client}
}

func (s *PackageStrategy) Name() string { return "package" }

func (s *PackageStrategy) MatchedStatus() codebase.Status { return codebase.StatusMatchedPackage }

func (s *PackageStrategy) Match(ctx context.Context, sha1s []string) (map[string][]PackageData, error) {
	return s.client.matchChecksums(ctx, packagesEndpoint, sha1s)
}

// ResourceStrategy matches arbitrary file checksums against indexed package
// resources.
type ResourceStrategy struct {
	client *Client
}

// NewResourceStrategy returns the file-as-resource matching strategy.
func NewResourceStrategy(client *Client) *ResourceStrategy {
	return &ResourceStrategy{client: client}
}

func (s *ResourceStrategy) Name() string { return "resource" }

func (s *ResourceStrategy) MatchedStatus() codebase.Status { return codebase.StatusMatchedResource }

func (s *ResourceStrategy) Match(ctx context.Context, sha1s []string) (map[string][]PackageData, error) {
	return s.client.matchChecksums(ctx, resourcesEndpoint, sha1s)
}
