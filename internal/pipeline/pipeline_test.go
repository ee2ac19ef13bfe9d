package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"purlmatch/internal/codebase"
	"purlmatch/internal/logging"
	"purlmatch/internal/pipeline"
	"purlmatch/internal/purldb"
	"purlmatch/internal/testsupport"
)

func TestRunnerExecutesStepsInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	var order []string
	steps := []pipeline.Step{
		{Name: "first", Run: func(context.Context) error {
			order = append(order, "first")
			return nil
		}},
		{Name: "second", Run: func(context.Context) error {
			order = append(order, "second")
			return nil
		}},
	}

	runner := pipeline.NewRunner(cfg, logging.NewNop(), steps)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected step order: %v", order)
	}
}

func TestRunnerStopsAtFirstFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	boom := errors.New("boom")
	var reached bool
	steps := []pipeline.Step{
		{Name: "failing", Run: func(context.Context) error { return boom }},
		{Name: "unreached", Run: func(context.Context) error {
			reached = true
			return nil
		}},
	}

	runner := pipeline.NewRunner(cfg, logging.NewNop(), steps)
	err := runner.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped step error, got %v", err)
	}
	if reached {
		t.Fatal("steps after a failure must not run")
	}
}

func TestRunnerRefusesConcurrentRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	release := make(chan struct{})
	started := make(chan struct{})
	first := pipeline.NewRunner(cfg, logging.NewNop(), []pipeline.Step{
		{Name: "hold", Run: func(context.Context) error {
			close(started)
			<-release
			return nil
		}},
	})

	errCh := make(chan error, 1)
	go func() { errCh <- first.Run(context.Background()) }()
	<-started

	second := pipeline.NewRunner(cfg, logging.NewNop(), nil)
	if err := second.Run(context.Background()); err == nil {
		t.Fatal("expected second run to be refused while the lock is held")
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

func TestMatchStepsEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "e2e")

	ctx := context.Background()

	// Codebase: one archive, its extraction directory, two matched classes.
	testsupport.AddFile(t, st, project.ID, "libs/foo.jar", "sha-jar", testsupport.WithArchive())
	testsupport.AddDir(t, st, project.ID, "libs/foo.jar-extract")
	testsupport.AddFile(t, st, project.ID, "libs/foo.jar-extract/a.class", "sha-a")
	testsupport.AddFile(t, st, project.ID, "libs/foo.jar-extract/b.class", "sha-b")

	resourceMatches := map[string][]map[string]any{
		"sha-a": {
			{"type": "maven", "namespace": "org.foo", "name": "bar", "version": "1.0", "purl": "pkg:maven/org.foo/bar@1.0"},
			{"type": "maven", "namespace": "org.foo", "name": "bar", "version": "2.0", "purl": "pkg:maven/org.foo/bar@2.0"},
		},
		"sha-b": {
			{"type": "maven", "namespace": "org.foo", "name": "bar", "version": "1.0", "purl": "pkg:maven/org.foo/bar@1.0"},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.WriteHeader(http.StatusOK)
		case "/packages/filter_by_checksums/":
			_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
		case "/resources/filter_by_checksums/":
			var req struct {
				SHA1 []string `json:"sha1"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			var results []map[string]any
			for _, sha1 := range req.SHA1 {
				if packages, ok := resourceMatches[sha1]; ok {
					results = append(results, map[string]any{"sha1": sha1, "packages": packages})
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := purldb.NewClientWith(server.URL, "", nil)
	steps := pipeline.MatchSteps(cfg, st, client, project.ID, logging.NewNop())
	runner := pipeline.NewRunner(cfg, logging.NewNop(), steps)

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	// Both classes are refined to the consensus version.
	for _, path := range []string{"libs/foo.jar-extract/a.class", "libs/foo.jar-extract/b.class"} {
		r, err := st.GetResourceByPath(ctx, project.ID, path)
		if err != nil {
			t.Fatalf("GetResourceByPath(%s): %v", path, err)
		}
		if r.Status != codebase.StatusRefined {
			t.Fatalf("%s: expected refined status, got %q", path, r.Status)
		}
		ids, err := st.PackageIDsForResource(ctx, r.ID)
		if err != nil {
			t.Fatalf("PackageIDsForResource(%s): %v", path, err)
		}
		if len(ids) != 1 {
			t.Fatalf("%s: expected consensus attribution, got %d", path, len(ids))
		}
	}

	// The superseded version was detached and purged.
	reports, err := st.PackageReports(ctx, project.ID)
	if err != nil {
		t.Fatalf("PackageReports failed: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected a single surviving package, got %d", len(reports))
	}
	if reports[0].Package.PURL != "pkg:maven/org.foo/bar@1.0" || reports[0].ResourceCount != 2 {
		t.Fatalf("unexpected surviving package: %+v", reports[0])
	}

	// The unmatched archive keeps its empty status.
	jar, err := st.GetResourceByPath(ctx, project.ID, "libs/foo.jar")
	if err != nil {
		t.Fatalf("GetResourceByPath: %v", err)
	}
	if jar.Status != codebase.StatusNone {
		t.Fatalf("unmatched archive must keep empty status, got %q", jar.Status)
	}
}

func TestMatchStepsSkipWhenPurlDBDown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	project := testsupport.NewProject(t, st, "down")

	ctx := context.Background()
	testsupport.AddFile(t, st, project.ID, "src/a.go", "sha-a")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	server.Close()

	client := purldb.NewClientWith(server.URL, "", nil)
	steps := pipeline.MatchSteps(cfg, st, client, project.ID, logging.NewNop())
	runner := pipeline.NewRunner(cfg, logging.NewNop(), steps)

	// The matching steps skip, the rest of the pipeline still runs.
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("pipeline run must tolerate an unreachable PurlDB: %v", err)
	}

	r, err := st.GetResourceByPath(ctx, project.ID, "src/a.go")
	if err != nil {
		t.Fatalf("GetResourceByPath: %v", err)
	}
	if r.Status != codebase.StatusNone {
		t.Fatalf("expected untouched resource, got status %q", r.Status)
	}
}
