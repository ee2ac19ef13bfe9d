package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"purlmatch/internal/codebase"
	"purlmatch/internal/logging"
	"purlmatch/internal/purldb"
	"purlmatch/internal/store"
)

// DefaultChunkSize bounds how many SHA1 checksums are sent per PurlDB
// request.
const DefaultChunkSize = 1000

// Run matches eligible files against PurlDB using the given strategy and
// returns how many resources were matched.
//
// Candidates are to/-side files with a fingerprint, no status, and the
// requested archive flag. They are partitioned into batches of at most
// chunkSize checksums; each batch is sent as one request. Matched resources
// are attributed to every returned candidate package and receive the
// strategy's matched status. If the service becomes unavailable mid-run the
// remaining batches are skipped and the matches committed so far are kept.
func Run(ctx context.Context, st *store.Store, projectID string, isArchive bool, strategy purldb.Strategy, chunkSize int, logger *slog.Logger) (int, error) {
	logger = logging.NewComponentLogger(logger, "matcher")
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	total, err := st.CountMatchCandidates(ctx, projectID, isArchive)
	if err != nil {
		return 0, err
	}
	logger.Info(fmt.Sprintf("matching %s resources in PurlDB, using SHA1", logging.Count(int64(total))),
		logging.Bool("is_archive", isArchive),
		logging.String("strategy", strategy.Name()),
	)
	if total == 0 {
		return 0, nil
	}

	matched := 0
	status := strategy.MatchedStatus()

	err = st.MatchCandidates(ctx, projectID, isArchive, chunkSize, func(chunk []codebase.Resource) error {
		n, err := matchChunk(ctx, st, projectID, strategy, status, chunk)
		matched += n
		return err
	})
	if errors.Is(err, purldb.ErrUnavailable) {
		logger.Warn("PurlDB became unavailable, skipping remaining batches", logging.Error(err))
		err = nil
	}
	if err != nil {
		return matched, err
	}

	logger.Info(fmt.Sprintf("%s resources matched", logging.Count(int64(matched))),
		logging.String("strategy", strategy.Name()),
	)
	return matched, nil
}

// matchChunk sends one checksum batch and records the resulting attributions
// and statuses.
func matchChunk(ctx context.Context, st *store.Store, projectID string, strategy purldb.Strategy, status codebase.Status, chunk []codebase.Resource) (int, error) {
	sha1s := make([]string, 0, len(chunk))
	bySHA1 := make(map[string][]int64, len(chunk))
	for _, r := range chunk {
		if _, seen := bySHA1[r.SHA1]; !seen {
			sha1s = append(sha1s, r.SHA1)
		}
		bySHA1[r.SHA1] = append(bySHA1[r.SHA1], r.ID)
	}

	matches, err := strategy.Match(ctx, sha1s)
	if err != nil {
		return 0, err
	}

	matchedCount := 0
	for sha1, candidates := range matches {
		resourceIDs := bySHA1[sha1]
		if len(resourceIDs) == 0 {
			continue
		}

		packageIDs := make([]int64, 0, len(candidates))
		for _, data := range candidates {
			pkg := codebase.Package{
				ProjectID: projectID,
				Type:      data.Type,
				Namespace: data.Namespace,
				Name:      data.Name,
				Version:   data.Version,
				PURL:      data.PURL,
			}
			if err := st.UpsertPackage(ctx, &pkg); err != nil {
				return matchedCount, err
			}
			packageIDs = append(packageIDs, pkg.ID)
		}
		if len(packageIDs) == 0 {
			continue
		}

		if err := st.AttachPackages(ctx, resourceIDs, packageIDs); err != nil {
			return matchedCount, err
		}
		if err := st.SetResourceStatus(ctx, resourceIDs, status); err != nil {
			return matchedCount, err
		}
		matchedCount += len(resourceIDs)
	}
	return matchedCount, nil
}
