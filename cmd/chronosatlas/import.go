package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/siherrmann/chronosatlas/core/loader"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import figures from a CSV file",
		Long: fmt.Sprintf(`Imports figures from a CSV file with a header row. All of these columns
are required, in any order: %s.
name, birth_year and normalized_birth_year must have a value in every row.
An empty normalized_death_year marks a living figure. death_year may be empty.
The file is rejected as a whole when any row is invalid.
Rows whose slug already exists are skipped.`, strings.Join(loader.CSVColumns, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer file.Close()

			atlas, err := openAtlasForTask(newLogger())
			if err != nil {
				return err
			}
			defer atlas.Close()

			report, err := atlas.ImportCSV(cmd.Context(), file)
			if err != nil {
				return fmt.Errorf("importing %s: %w", args[0], err)
			}

			fmt.Printf("Rows %d, inserted %d, skipped %d\n", report.Rows, report.Inserted, report.Skipped)
			return nil
		},
	}
}
