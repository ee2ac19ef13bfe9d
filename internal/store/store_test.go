package store_test

import (
	"context"
	"fmt"
	"testing"

	"purlmatch/internal/codebase"
	"purlmatch/internal/store"
	"purlmatch/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	project, err := st.CreateProject(ctx, "sample")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.ID == "" {
		t.Fatal("expected project ID to be assigned")
	}

	fetched, err := st.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if fetched.Name != "sample" {
		t.Fatalf("unexpected project: %#v", fetched)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	st.Close()

	// Reopening against the same file succeeds while versions agree.
	st2, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	st2.Close()
}

func TestLatestProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := st.LatestProject(ctx); err == nil {
		t.Fatal("expected ErrNotFound on empty store")
	}

	testsupport.NewProject(t, st, "first")
	second := testsupport.NewProject(t, st, "second")

	latest, err := st.LatestProject(ctx)
	if err != nil {
		t.Fatalf("LatestProject failed: %v", err)
	}
	if latest.ID != second.ID {
		t.Fatalf("expected latest project %q, got %q", second.Name, latest.Name)
	}
}

func TestMatchCandidateFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "filter")

	ctx := context.Background()

	// Eligible file.
	testsupport.AddFile(t, st, project.ID, "src/a.go", "sha-a")
	// Archive is excluded when is_archive=false is requested.
	testsupport.AddFile(t, st, project.ID, "libs/b.jar", "sha-b", testsupport.WithArchive())
	// No fingerprint.
	testsupport.AddFile(t, st, project.ID, "src/empty.go", "")
	// Already claimed by a stage.
	testsupport.AddFile(t, st, project.ID, "src/c.go", "sha-c", testsupport.WithStatus(codebase.StatusMatchedResource))
	// Directories never match.
	testsupport.AddDir(t, st, project.ID, "src")

	count, err := st.CountMatchCandidates(ctx, project.ID, false)
	if err != nil {
		t.Fatalf("CountMatchCandidates failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 candidate, got %d", count)
	}

	var got []string
	err = st.MatchCandidates(ctx, project.ID, false, 10, func(chunk []codebase.Resource) error {
		for _, r := range chunk {
			got = append(got, r.Path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("MatchCandidates failed: %v", err)
	}
	if len(got) != 1 || got[0] != "src/a.go" {
		t.Fatalf("unexpected candidates: %v", got)
	}

	archiveCount, err := st.CountMatchCandidates(ctx, project.ID, true)
	if err != nil {
		t.Fatalf("CountMatchCandidates failed: %v", err)
	}
	if archiveCount != 1 {
		t.Fatalf("expected 1 archive candidate, got %d", archiveCount)
	}
}

func TestMatchCandidatesChunking(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "chunks")

	for i := 0; i < 25; i++ {
		testsupport.AddFile(t, st, project.ID, fmt.Sprintf("src/file-%02d.go", i), fmt.Sprintf("sha-%02d", i))
	}

	var sizes []int
	err := st.MatchCandidates(context.Background(), project.ID, false, 10, func(chunk []codebase.Resource) error {
		sizes = append(sizes, len(chunk))
		return nil
	})
	if err != nil {
		t.Fatalf("MatchCandidates failed: %v", err)
	}
	if len(sizes) != 3 || sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Fatalf("unexpected chunk sizes: %v", sizes)
	}
}

func TestExtractDirectoryQueries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "extract")

	ctx := context.Background()
	testsupport.AddDir(t, st, project.ID, "libs")
	testsupport.AddDir(t, st, project.ID, "libs/foo.jar-extract")
	testsupport.AddDir(t, st, project.ID, "libs/foo.jar-extract/inner.jar-extract")
	testsupport.AddDir(t, st, project.ID, "libs/bar.jar-extract")
	// A matching file name must not count as an extraction directory.
	testsupport.AddFile(t, st, project.ID, "libs/fake-extract", "sha-fake")

	count, err := st.CountExtractDirectories(ctx, project.ID)
	if err != nil {
		t.Fatalf("CountExtractDirectories failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 extract directories, got %d", count)
	}

	nested, err := st.HasNestedExtractDirectory(ctx, project.ID, "libs/foo.jar-extract")
	if err != nil {
		t.Fatalf("HasNestedExtractDirectory failed: %v", err)
	}
	if !nested {
		t.Fatal("expected nested extract directory below libs/foo.jar-extract")
	}

	nested, err = st.HasNestedExtractDirectory(ctx, project.ID, "libs/bar.jar-extract")
	if err != nil {
		t.Fatalf("HasNestedExtractDirectory failed: %v", err)
	}
	if nested {
		t.Fatal("did not expect nested extract directory below libs/bar.jar-extract")
	}
}

func TestHasNestedExtractDirectoryIgnoresSiblings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "siblings")

	testsupport.AddDir(t, st, project.ID, "a.jar-extract")
	// Shares the prefix as a string but is a sibling, not a descendant.
	testsupport.AddDir(t, st, project.ID, "a.jar-extract-more.jar-extract")

	nested, err := st.HasNestedExtractDirectory(context.Background(), project.ID, "a.jar-extract")
	if err != nil {
		t.Fatalf("HasNestedExtractDirectory failed: %v", err)
	}
	if nested {
		t.Fatal("sibling directory must not count as nested")
	}
}

func TestFilesUnderWithStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "under")

	matched := codebase.StatusMatchedResource
	testsupport.AddFile(t, st, project.ID, "dir-extract/a.class", "sha-a", testsupport.WithStatus(matched))
	testsupport.AddFile(t, st, project.ID, "dir-extract/sub/b.class", "sha-b", testsupport.WithStatus(matched))
	testsupport.AddFile(t, st, project.ID, "dir-extract/c.class", "sha-c")
	testsupport.AddFile(t, st, project.ID, "other/d.class", "sha-d", testsupport.WithStatus(matched))

	files, err := st.FilesUnderWithStatus(context.Background(), project.ID, "dir-extract", matched)
	if err != nil {
		t.Fatalf("FilesUnderWithStatus failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Path != "dir-extract/a.class" || files[1].Path != "dir-extract/sub/b.class" {
		t.Fatalf("unexpected files: %v, %v", files[0].Path, files[1].Path)
	}
}

func TestAttributionRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "attr")

	ctx := context.Background()
	file := testsupport.AddFile(t, st, project.ID, "a.go", "sha-a")
	p1 := testsupport.AddPackage(t, st, project.ID, "org.foo", "bar", "1.0")
	p2 := testsupport.AddPackage(t, st, project.ID, "org.foo", "bar", "2.0")

	testsupport.Attach(t, st, []int64{file.ID}, []int64{p1.ID, p2.ID})
	// Attaching twice is a no-op.
	testsupport.Attach(t, st, []int64{file.ID}, []int64{p1.ID})

	ids, err := st.PackageIDsForResource(ctx, file.ID)
	if err != nil {
		t.Fatalf("PackageIDsForResource failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 attributions, got %d", len(ids))
	}

	if err := st.ClearResourceAttributions(ctx, []int64{file.ID}); err != nil {
		t.Fatalf("ClearResourceAttributions failed: %v", err)
	}
	ids, err = st.PackageIDsForResource(ctx, file.ID)
	if err != nil {
		t.Fatalf("PackageIDsForResource failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no attributions, got %d", len(ids))
	}
}

func TestUpsertPackageDeduplicatesByPURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "dedupe")

	first := testsupport.AddPackage(t, st, project.ID, "org.foo", "bar", "1.0")
	second := testsupport.AddPackage(t, st, project.ID, "org.foo", "bar", "1.0")
	if first.ID != second.ID {
		t.Fatalf("expected identical package IDs, got %d and %d", first.ID, second.ID)
	}
}

func TestPackageGroupsAndGroupOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "groups")

	ctx := context.Background()
	testsupport.AddPackage(t, st, project.ID, "org.foo", "bar", "1.0")
	testsupport.AddPackage(t, st, project.ID, "org.foo", "bar", "2.0")
	testsupport.AddPackage(t, st, project.ID, "org.baz", "qux", "0.1")

	groups, err := st.PackageGroups(ctx, project.ID)
	if err != nil {
		t.Fatalf("PackageGroups failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	packages, err := st.PackagesInGroup(ctx, project.ID, codebase.GroupKey{Namespace: "org.foo", Name: "bar"})
	if err != nil {
		t.Fatalf("PackagesInGroup failed: %v", err)
	}
	if len(packages) != 2 {
		t.Fatalf("expected 2 packages in group, got %d", len(packages))
	}
	if packages[0].Version != "1.0" || packages[1].Version != "2.0" {
		t.Fatalf("expected insertion order, got %s then %s", packages[0].Version, packages[1].Version)
	}
}

func TestDeleteOrphanPackages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "orphans")

	ctx := context.Background()
	file := testsupport.AddFile(t, st, project.ID, "a.go", "sha-a")
	attached := testsupport.AddPackage(t, st, project.ID, "org.foo", "bar", "1.0")
	testsupport.AddPackage(t, st, project.ID, "org.foo", "orphan", "1.0")

	testsupport.Attach(t, st, []int64{file.ID}, []int64{attached.ID})

	deleted, err := st.DeleteOrphanPackages(ctx, project.ID)
	if err != nil {
		t.Fatalf("DeleteOrphanPackages failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted package, got %d", deleted)
	}

	if _, err := st.GetPackage(ctx, attached.ID); err != nil {
		t.Fatalf("surviving package should remain: %v", err)
	}

	reports, err := st.PackageReports(ctx, project.ID)
	if err != nil {
		t.Fatalf("PackageReports failed: %v", err)
	}
	if len(reports) != 1 || reports[0].ResourceCount != 1 {
		t.Fatalf("unexpected reports: %#v", reports)
	}
}
