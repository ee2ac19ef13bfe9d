package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"purlmatch/internal/config"
	"purlmatch/internal/store"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "List discovered packages and their attributed resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				project, err := ctx.resolveProject(cmd.Context(), st)
				if err != nil {
					return err
				}

				reports, err := st.PackageReports(cmd.Context(), project.ID)
				if err != nil {
					return err
				}
				if len(reports) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No packages discovered for project %q\n", project.Name)
					return nil
				}

				rows := make([][]string, 0, len(reports))
				for _, report := range reports {
					rows = append(rows, []string{
						report.Package.PURL,
						report.Package.Version,
						strconv.Itoa(report.ResourceCount),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Package", "Version", "Resources"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}
