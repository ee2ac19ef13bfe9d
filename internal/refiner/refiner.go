package refiner

import (
	"context"
	"fmt"
	"log/slog"

	"purlmatch/internal/codebase"
	"purlmatch/internal/logging"
	"purlmatch/internal/store"
)

// directoryChunkSize bounds how many extraction directories are held in
// memory per iteration step.
const directoryChunkSize = 2000

// Run refines PurlDB file matches inside extraction directories and returns
// how many resources were re-attributed.
//
// A directory qualifies when its path carries the extraction suffix and no
// other extraction directory lies strictly below it; directories with nested
// extraction directories are excluded outright, not deferred. For each
// qualifying directory the matched files below it are re-attributed in bulk
// to the intersection of their candidate packages and marked refined so a
// second run leaves them untouched. Directories with no matched files or no
// common package contribute nothing.
func Run(ctx context.Context, st *store.Store, projectID string, logger *slog.Logger) (int, error) {
	logger = logging.NewComponentLogger(logger, "refiner")

	total, err := st.CountExtractDirectories(ctx, projectID)
	if err != nil {
		return 0, err
	}
	logger.Info(fmt.Sprintf("refining matching for %s extract directories", logging.Count(int64(total))))
	if total == 0 {
		return 0, nil
	}

	progress := logging.NewLoopProgress(total, logger, "refinement progress")
	refined := 0

	err = st.ExtractDirectories(ctx, projectID, directoryChunkSize, func(chunk []codebase.Resource) error {
		for i := range chunk {
			count, err := refineDirectory(ctx, st, projectID, chunk[i].Path)
			if err != nil {
				return err
			}
			refined += count
			progress.Advance(1)
		}
		return nil
	})
	if err != nil {
		return refined, err
	}

	logger.Info(fmt.Sprintf("%s resource matches refined", logging.Count(int64(refined))))
	return refined, nil
}

// refineDirectory applies consensus refinement to one extraction directory
// and returns how many files it re-attributed.
func refineDirectory(ctx context.Context, st *store.Store, projectID, dir string) (int, error) {
	// Defer to the deepest extraction level: a directory holding another
	// extraction directory is skipped entirely.
	nested, err := st.HasNestedExtractDirectory(ctx, projectID, dir)
	if err != nil {
		return 0, err
	}
	if nested {
		return 0, nil
	}

	files, err := st.FilesUnderWithStatus(ctx, projectID, dir, codebase.StatusMatchedResource)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	common, err := commonPackageIDs(ctx, st, files)
	if err != nil {
		return 0, err
	}
	if len(common) == 0 {
		// No package claims every file; leave the individual matches alone.
		return 0, nil
	}

	fileIDs := make([]int64, len(files))
	for i := range files {
		fileIDs[i] = files[i].ID
	}

	if err := st.ClearResourceAttributions(ctx, fileIDs); err != nil {
		return 0, err
	}
	if err := st.AttachPackages(ctx, fileIDs, common); err != nil {
		return 0, err
	}
	if err := st.SetResourceStatus(ctx, fileIDs, codebase.StatusRefined); err != nil {
		return 0, err
	}
	return len(files), nil
}

// commonPackageIDs intersects the attributed package sets of the given files,
// starting from the first file's packages.
func commonPackageIDs(ctx context.Context, st *store.Store, files []codebase.Resource) ([]int64, error) {
	common, err := st.PackageIDsForResource(ctx, files[0].ID)
	if err != nil {
		return nil, err
	}

	for _, file := range files[1:] {
		if len(common) == 0 {
			return nil, nil
		}
		ids, err := st.PackageIDsForResource(ctx, file.ID)
		if err != nil {
			return nil, err
		}
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			seen[id] = struct{}{}
		}
		kept := common[:0]
		for _, id := range common {
			if _, ok := seen[id]; ok {
				kept = append(kept, id)
			}
		}
		common = kept
	}
	return common, nil
}
