package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"purlmatch/internal/config"
	"purlmatch/internal/scanner"
	"purlmatch/internal/store"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var nameFlag string

	cmd := &cobra.Command{
		Use:   "collect <dir>",
		Short: "Collect a codebase into a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			root := args[0]
			name := strings.TrimSpace(nameFlag)
			if name == "" {
				name = filepath.Base(strings.TrimRight(root, "/"))
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				project, err := st.CreateProject(cmd.Context(), name)
				if err != nil {
					return err
				}

				summary, err := scanner.Scan(cmd.Context(), st, project.ID, root, cfg.Scanner.ArchiveExtensions, logger)
				if err != nil {
					return fmt.Errorf("collect %s: %w", root, err)
				}

				fmt.Fprintf(cmd.OutOrStdout(),
					"Collected project %q (%s): %d files (%d archives), %d directories\n",
					project.Name, project.ID, summary.Files, summary.Archives, summary.Directories)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Project name (defaults to the directory name)")
	return cmd
}
