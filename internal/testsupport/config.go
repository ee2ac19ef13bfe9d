package testsupport

import (
	"path/filepath"
	"testing"

	"purlmatch/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.PurlDB.BaseURL = "http://127.0.0.1:0/api"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("config.EnsureDirectories: %v", err)
	}
	return &cfg
}
