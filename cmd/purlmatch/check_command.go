package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"purlmatch/internal/preflight"
	"purlmatch/internal/purldb"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the environment is ready for a pipeline run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := purldb.NewClient(cfg)
			results := preflight.RunAll(cmd.Context(), cfg, client)
			printChecks(cmd, results)

			if !preflight.AllPassed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

func printChecks(cmd *cobra.Command, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := "FAIL"
		if result.Passed {
			status = "OK"
		}
		rows = append(rows, []string{result.Name, status, result.Detail})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Check", "Status", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
}
