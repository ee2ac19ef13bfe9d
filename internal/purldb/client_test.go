package purldb_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"purlmatch/internal/codebase"
	"purlmatch/internal/purldb"
)

func TestIsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := purldb.NewClientWith(server.URL, "", nil)
	if !client.IsAvailable(context.Background()) {
		t.Fatal("expected service to be reported available")
	}
}

func TestIsAvailableWhenDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := purldb.NewClientWith(server.URL, "", nil)
	if client.IsAvailable(context.Background()) {
		t.Fatal("expected service to be reported unavailable")
	}

	server.Close()
	if client.IsAvailable(context.Background()) {
		t.Fatal("expected closed server to be reported unavailable")
	}
}

func TestResourceStrategyMatch(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody struct {
		SHA1 []string `json:"sha1"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"sha1": "sha-a",
					"packages": []map[string]any{
						{"type": "maven", "namespace": "org.foo", "name": "bar", "version": "1.0", "purl": "pkg:maven/org.foo/bar@1.0"},
					},
				},
				{"sha1": "sha-b", "packages": []map[string]any{}},
			},
		})
	}))
	defer server.Close()

	client := purldb.NewClientWith(server.URL, "secret", nil)
	strategy := purldb.NewResourceStrategy(client)

	if strategy.Name() != "resource" {
		t.Fatalf("unexpected strategy name %q", strategy.Name())
	}
	if strategy.MatchedStatus() != codebase.StatusMatchedResource {
		t.Fatalf("unexpected matched status %q", strategy.MatchedStatus())
	}

	matches, err := strategy.Match(context.Background(), []string{"sha-a", "sha-b"})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if gotPath != "/resources/filter_by_checksums/" {
		t.Fatalf("unexpected endpoint %q", gotPath)
	}
	if gotAuth != "Token secret" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if len(gotBody.SHA1) != 2 || gotBody.SHA1[0] != "sha-a" {
		t.Fatalf("unexpected request checksums: %v", gotBody.SHA1)
	}

	if len(matches) != 1 {
		t.Fatalf("expected 1 matched checksum, got %d", len(matches))
	}
	data := matches["sha-a"]
	if len(data) != 1 || data[0].PURL != "pkg:maven/org.foo/bar@1.0" {
		t.Fatalf("unexpected match data: %#v", data)
	}
}

func TestPackageStrategyEndpointAndStatus(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer server.Close()

	client := purldb.NewClientWith(server.URL, "", nil)
	strategy := purldb.NewPackageStrategy(client)

	if strategy.MatchedStatus() != codebase.StatusMatchedPackage {
		t.Fatalf("unexpected matched status %q", strategy.MatchedStatus())
	}

	matches, err := strategy.Match(context.Background(), []string{"sha-a"})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if gotPath != "/packages/filter_by_checksums/" {
		t.Fatalf("unexpected endpoint %q", gotPath)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestMatchReportsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := purldb.NewClientWith(server.URL, "", nil)
	strategy := purldb.NewResourceStrategy(client)

	_, err := strategy.Match(context.Background(), []string{"sha-a"})
	if !errors.Is(err, purldb.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for 503, got %v", err)
	}

	server.Close()
	_, err = strategy.Match(context.Background(), []string{"sha-a"})
	if !errors.Is(err, purldb.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for connection error, got %v", err)
	}
}

func TestMatchRejectsUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := purldb.NewClientWith(server.URL, "", nil)
	strategy := purldb.NewResourceStrategy(client)

	_, err := strategy.Match(context.Background(), []string{"sha-a"})
	if err == nil {
		t.Fatal("expected error for 403")
	}
	if errors.Is(err, purldb.ErrUnavailable) {
		t.Fatal("authorization failures are not availability problems")
	}
}
