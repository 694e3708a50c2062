package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siherrmann/chronosatlas/core/loader"
)

func newSeedCmd() *cobra.Command {
	var (
		fixture    string
		clearFirst bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in dataset or a YAML fixture",
		Long: `Loads fields, figures, timeline events and influences in one transaction.
Existing rows are matched by slug, so running the command twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dataset *loader.Dataset
			if fixture != "" {
				var err error
				dataset, err = loader.LoadFixture(fixture)
				if err != nil {
					return err
				}
			}

			atlas, err := openAtlasForTask(newLogger())
			if err != nil {
				return err
			}
			defer atlas.Close()

			report, err := atlas.Seed(cmd.Context(), dataset, clearFirst)
			if err != nil {
				return fmt.Errorf("seeding: %w", err)
			}

			if report.Cleared {
				fmt.Println("Cleared existing data")
			}
			fmt.Printf("Fields:     %d\n", report.Fields)
			fmt.Printf("Figures:    %d\n", report.Figures)
			fmt.Printf("Events:     %d\n", report.Events)
			fmt.Printf("Influences: %d\n", report.Influences)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fixture, "fixture", "f", "", "YAML fixture to load instead of the built-in dataset")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "Delete all existing data before loading")

	return cmd
}
