package reducer

import (
	"context"
	"fmt"
	"log/slog"

	"purlmatch/internal/codebase"
	"purlmatch/internal/logging"
	"purlmatch/internal/store"
)

// Run elects the best package per (namespace, name) group and detaches the
// attributions of any sibling whose resource set the main package fully
// covers.
//
// The main package is the group member with the largest resource-path set;
// on ties the earliest-inserted member wins (groups are read in insertion
// order). A sibling with even one path the main package lacks keeps all of
// its attributions. Detached packages are not deleted here; PurgeOrphans
// handles that as a separate step.
func Run(ctx context.Context, st *store.Store, projectID string, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "reducer")

	groups, err := st.PackageGroups(ctx, projectID)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("reducing %s package groups", logging.Count(int64(len(groups)))))

	reduced := 0
	for _, group := range groups {
		n, err := reduceGroup(ctx, st, projectID, group)
		if err != nil {
			return err
		}
		reduced += n
	}

	logger.Info(fmt.Sprintf("%s redundant packages detached", logging.Count(int64(reduced))))
	return nil
}

// reduceGroup clears subset siblings within one version-agnostic group and
// returns how many packages were detached.
func reduceGroup(ctx context.Context, st *store.Store, projectID string, group codebase.GroupKey) (int, error) {
	packages, err := st.PackagesInGroup(ctx, projectID, group)
	if err != nil {
		return 0, err
	}
	if len(packages) < 2 {
		return 0, nil
	}

	pathSets := make([]map[string]struct{}, len(packages))
	for i := range packages {
		paths, err := st.ResourcePathsForPackage(ctx, packages[i].ID)
		if err != nil {
			return 0, err
		}
		pathSets[i] = paths
	}

	main := 0
	for i := 1; i < len(packages); i++ {
		if len(pathSets[i]) > len(pathSets[main]) {
			main = i
		}
	}

	detached := 0
	for i := range packages {
		if i == main {
			continue
		}
		if !isSubset(pathSets[i], pathSets[main]) {
			continue
		}
		if err := st.ClearPackageAttributions(ctx, packages[i].ID); err != nil {
			return detached, err
		}
		detached++
	}
	return detached, nil
}

// isSubset reports whether every path in sub is also in super. An empty sub
// is a subset of anything.
func isSubset(sub, super map[string]struct{}) bool {
	if len(sub) > len(super) {
		return false
	}
	for path := range sub {
		if _, ok := super[path]; !ok {
			return false
		}
	}
	return true
}

// PurgeOrphans deletes every package with no attributed resources and logs
// the count. It backs the invariant that every surviving package has at
// least one resource.
func PurgeOrphans(ctx context.Context, st *store.Store, projectID string, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "reducer")

	deleted, err := st.DeleteOrphanPackages(ctx, projectID)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("%s packages without resources removed", logging.Count(deleted)))
	return nil
}
