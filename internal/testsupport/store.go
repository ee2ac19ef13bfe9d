package testsupport

import (
	"context"
	"testing"

	"purlmatch/internal/codebase"
	"purlmatch/internal/config"
	"purlmatch/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewProject creates a project for tests using the provided store.
func NewProject(t testing.TB, st *store.Store, name string) *store.Project {
	t.Helper()

	project, err := st.CreateProject(context.Background(), name)
	if err != nil {
		t.Fatalf("store.CreateProject: %v", err)
	}
	return project
}

// ResourceOption customizes a test resource before insertion.
type ResourceOption func(*codebase.Resource)

// WithArchive flags the resource as an archive.
func WithArchive() ResourceOption {
	return func(r *codebase.Resource) { r.IsArchive = true }
}

// WithStatus presets the resource status.
func WithStatus(status codebase.Status) ResourceOption {
	return func(r *codebase.Resource) { r.Status = status }
}

// AddFile inserts a to/-side file resource with the given fingerprint.
func AddFile(t testing.TB, st *store.Store, projectID, path, sha1 string, opts ...ResourceOption) *codebase.Resource {
	t.Helper()

	resource := &codebase.Resource{
		ProjectID: projectID,
		Path:      path,
		Side:      codebase.SideTo,
		IsFile:    true,
		SHA1:      sha1,
	}
	for _, opt := range opts {
		opt(resource)
	}
	if err := st.InsertResource(context.Background(), resource); err != nil {
		t.Fatalf("store.InsertResource(%s): %v", path, err)
	}
	return resource
}

// AddDir inserts a to/-side directory resource.
func AddDir(t testing.TB, st *store.Store, projectID, path string) *codebase.Resource {
	t.Helper()

	resource := &codebase.Resource{
		ProjectID: projectID,
		Path:      path,
		Side:      codebase.SideTo,
	}
	if err := st.InsertResource(context.Background(), resource); err != nil {
		t.Fatalf("store.InsertResource(%s): %v", path, err)
	}
	return resource
}

// AddPackage inserts a package identified by namespace, name, and version.
func AddPackage(t testing.TB, st *store.Store, projectID, namespace, name, version string) *codebase.Package {
	t.Helper()

	pkg := &codebase.Package{
		ProjectID: projectID,
		Type:      "maven",
		Namespace: namespace,
		Name:      name,
		Version:   version,
	}
	if err := st.UpsertPackage(context.Background(), pkg); err != nil {
		t.Fatalf("store.UpsertPackage(%s/%s@%s): %v", namespace, name, version, err)
	}
	return pkg
}

// Attach attributes the given resources to the given packages.
func Attach(t testing.TB, st *store.Store, resourceIDs, packageIDs []int64) {
	t.Helper()

	if err := st.AttachPackages(context.Background(), resourceIDs, packageIDs); err != nil {
		t.Fatalf("store.AttachPackages: %v", err)
	}
}
