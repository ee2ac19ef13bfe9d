// Package preflight verifies the environment before a pipeline run: the
// workspace must be writable and PurlDB reachable. Checks return pass/fail
// results rather than errors so callers can render all of them at once.
package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"purlmatch/internal/config"
	"purlmatch/internal/purldb"
)

// Result captures the outcome of one environment check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check and returns the results in a stable order.
func RunAll(ctx context.Context, cfg *config.Config, client *purldb.Client) []Result {
	return []Result{
		CheckWorkspace(cfg),
		CheckPurlDB(ctx, client),
	}
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// CheckWorkspace verifies the workspace directory exists (creating it when
// missing) and is readable, writable, and traversable.
func CheckWorkspace(cfg *config.Config) Result {
	const name = "Workspace"

	dir := cfg.Paths.WorkspaceDir
	if dir == "" {
		return Result{Name: name, Detail: "workspace directory not configured"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("create failed (%v)", err)}
	}
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("access denied (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: dir}
}

// CheckPurlDB probes the PurlDB API root with a short timeout.
func CheckPurlDB(ctx context.Context, client *purldb.Client) Result {
	const name = "PurlDB"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if !client.IsAvailable(checkCtx) {
		return Result{Name: name, Detail: "not reachable"}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}
