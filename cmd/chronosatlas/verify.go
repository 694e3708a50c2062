package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyIndexesCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "verify-indexes",
		Short: "Check that lifespan overlap queries use the GiST index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			atlas, err := openAtlasForTask(newLogger())
			if err != nil {
				return err
			}
			defer atlas.Close()

			report, err := atlas.VerifyLifespanIndex(cmd.Context(), force)
			if err != nil {
				return fmt.Errorf("verifying index: %w", err)
			}

			fmt.Printf("Query: %s\n\n%s\n", report.Query, report.Plan)
			if !report.UsesIndex {
				return fmt.Errorf("index %s is not used by the overlap query", report.Index)
			}
			fmt.Printf("Index %s is used\n", report.Index)
			return nil
		},
	}

	// Small tables make the planner prefer a sequential scan
	cmd.Flags().BoolVar(&force, "force", true, "Disable sequential scans while explaining the query")

	return cmd
}
