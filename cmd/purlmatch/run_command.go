package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"purlmatch/internal/config"
	"purlmatch/internal/pipeline"
	"purlmatch/internal/preflight"
	"purlmatch/internal/purldb"
	"purlmatch/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the matching pipeline against PurlDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				project, err := ctx.resolveProject(cmd.Context(), st)
				if err != nil {
					return err
				}

				client := purldb.NewClient(cfg)

				if !skipChecks {
					results := preflight.RunAll(cmd.Context(), cfg, client)
					printChecks(cmd, results)
					if !preflight.AllPassed(results) {
						return errors.New("preflight checks failed (use --skip-checks to run anyway)")
					}
				}

				steps := pipeline.MatchSteps(cfg, st, client, project.ID, logger)
				runner := pipeline.NewRunner(cfg, logger, steps)
				if err := runner.Run(cmd.Context()); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Pipeline finished for project %q\n", project.Name)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip preflight checks before running")
	return cmd
}
