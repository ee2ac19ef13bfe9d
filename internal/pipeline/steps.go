package pipeline

import (
	"context"
	"log/slog"

	"purlmatch/internal/config"
	"purlmatch/internal/matcher"
	"purlmatch/internal/purldb"
	"purlmatch/internal/reducer"
	"purlmatch/internal/refiner"
	"purlmatch/internal/store"
)

// MatchSteps assembles the standard reconciliation pipeline for a project:
// archives matched as PurlDB packages, files matched as PurlDB resources,
// archive match refinement, package reduction, and orphan cleanup.
//
// The matching steps probe PurlDB availability themselves and skip with a log
// line when the service is unreachable; an unreachable service never fails
// the run.
func MatchSteps(cfg *config.Config, st *store.Store, client *purldb.Client, projectID string, logger *slog.Logger) []Step {
	chunkSize := cfg.PurlDB.ChunkSize

	return []Step{
		{
			Name: "match-archives-to-purldb-packages",
			Run: func(ctx context.Context) error {
				if !client.IsAvailable(ctx) {
					logger.Warn("PurlDB is not available, skipping")
					return nil
				}
				_, err := matcher.Run(ctx, st, projectID, true, purldb.NewPackageStrategy(client), chunkSize, logger)
				return err
			},
		},
		{
			Name: "match-resources-to-purldb",
			Run: func(ctx context.Context) error {
				if !client.IsAvailable(ctx) {
					logger.Warn("PurlDB is not available, skipping")
					return nil
				}
				_, err := matcher.Run(ctx, st, projectID, false, purldb.NewResourceStrategy(client), chunkSize, logger)
				return err
			},
		},
		{
			Name: "refine-archive-matches",
			Run: func(ctx context.Context) error {
				_, err := refiner.Run(ctx, st, projectID, logger)
				return err
			},
		},
		{
			Name: "reduce-packages",
			Run: func(ctx context.Context) error {
				return reducer.Run(ctx, st, projectID, logger)
			},
		},
		{
			Name: "remove-packages-without-resources",
			Run: func(ctx context.Context) error {
				return reducer.PurgeOrphans(ctx, st, projectID, logger)
			},
		},
	}
}
